package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"otwscraper/pkg/pacing"
)

// Config holds all configuration options for the harvester
type Config struct {
	// LinkedIn session and search options
	LinkedIn LinkedInConfig `yaml:"linkedin" json:"linkedin"`

	// Delays between browser actions
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Limits that stop a run before the account gets flagged
	Safety SafetyConfig `yaml:"safety" json:"safety"`

	// Chrome settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Google Sheets destination
	Sheets SheetsConfig `yaml:"sheets" json:"sheets"`

	// SQLite destination
	SQLite SQLiteConfig `yaml:"sqlite" json:"sqlite"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LinkedInConfig holds LinkedIn-specific configuration
type LinkedInConfig struct {
	// Account names the stored session cookie
	Account string `yaml:"account" json:"account"`
	// SessionCookie is the li_at cookie; usually left to the credential store
	SessionCookie       string `yaml:"session_cookie,omitempty" json:"session_cookie,omitempty"`
	GeoURN              string `yaml:"geo_urn" json:"geo_urn"`
	ApplyLocationFilter bool   `yaml:"apply_location_filter" json:"apply_location_filter"`
	StrictLocation      bool   `yaml:"strict_location" json:"strict_location"`
}

// PacingConfig holds the delay ranges
type PacingConfig struct {
	MinDelay          time.Duration `yaml:"min_delay" json:"min_delay"`
	MaxDelay          time.Duration `yaml:"max_delay" json:"max_delay"`
	ScrollPause       time.Duration `yaml:"scroll_pause" json:"scroll_pause"`
	LongPauseInterval int           `yaml:"long_pause_interval" json:"long_pause_interval"`
	LongPauseFactor   float64       `yaml:"long_pause_factor" json:"long_pause_factor"`
}

// SafetyConfig holds the per-run limits
type SafetyConfig struct {
	MaxProfilesPerSession int           `yaml:"max_profiles_per_session" json:"max_profiles_per_session"`
	ExhaustionThreshold   int           `yaml:"exhaustion_threshold" json:"exhaustion_threshold"`
	PageLoadsPerHour      int           `yaml:"page_loads_per_hour" json:"page_loads_per_hour"`
	NavigationRetries     int           `yaml:"navigation_retries" json:"navigation_retries"`
	NavigationTimeout     time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
}

// BrowserConfig holds Chrome configuration
type BrowserConfig struct {
	Headless    bool   `yaml:"headless" json:"headless"`
	UserDataDir string `yaml:"user_data_dir" json:"user_data_dir"`
	BinPath     string `yaml:"bin_path" json:"bin_path"`
}

// OutputConfig holds output configuration
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	// Format is csv, sheets or sqlite
	Format string `yaml:"format" json:"format"`
}

// SheetsConfig holds Google Sheets configuration
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" json:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name" json:"sheet_name"`
	CredentialsPath string `yaml:"credentials_path" json:"credentials_path"`
	ClearExisting   bool   `yaml:"clear_existing" json:"clear_existing"`
}

// SQLiteConfig holds the database location
type SQLiteConfig struct {
	Path string `yaml:"path" json:"path"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	OnRateLimit      bool   `yaml:"on_rate_limit" json:"on_rate_limit"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	// DisableConsole keeps log lines off the terminal, e.g. under the TUI
	DisableConsole bool `yaml:"-" json:"-"`
}

// Output formats
const (
	FormatCSV    = "csv"
	FormatSheets = "sheets"
	FormatSQLite = "sqlite"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LinkedIn: LinkedInConfig{
			Account: "default",
		},
		Pacing: PacingConfig{
			MinDelay:          pacing.DefaultMinDelay,
			MaxDelay:          pacing.DefaultMaxDelay,
			ScrollPause:       pacing.DefaultScrollPause,
			LongPauseInterval: pacing.DefaultLongPauseInterval,
			LongPauseFactor:   pacing.DefaultLongPauseFactor,
		},
		Safety: SafetyConfig{
			MaxProfilesPerSession: 500,
			ExhaustionThreshold:   3,
			PageLoadsPerHour:      100,
			NavigationRetries:     3,
			NavigationTimeout:     45 * time.Second,
		},
		Browser: BrowserConfig{
			Headless: false,
		},
		Output: OutputConfig{
			Directory: "output",
			Format:    FormatCSV,
		},
		Sheets: SheetsConfig{
			SheetName:       "Sheet1",
			CredentialsPath: "credentials.json",
		},
		SQLite: SQLiteConfig{
			Path: filepath.Join("output", "otwscraper.db"),
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			OnComplete:       true,
			OnError:          true,
			OnRateLimit:      true,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// PacingPolicy converts the pacing section for pkg/pacing
func (c *Config) PacingPolicy() pacing.Config {
	return pacing.Config{
		MinDelay:          c.Pacing.MinDelay,
		MaxDelay:          c.Pacing.MaxDelay,
		ScrollPause:       c.Pacing.ScrollPause,
		LongPauseInterval: c.Pacing.LongPauseInterval,
		LongPauseFactor:   c.Pacing.LongPauseFactor,
	}
}

// LoadFromEnv loads configuration from environment variables. Both the
// OTWSCRAPER_ names and the bare names of the original .env files work;
// the prefixed one wins.
func (c *Config) LoadFromEnv() error {
	var errs []error

	str := func(dst *string, names ...string) {
		if v, ok := lookup(names...); ok {
			*dst = v
		}
	}
	integer := func(dst *int, names ...string) {
		if v, ok := lookup(names...); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid integer %q", names[0], v))
				return
			}
			*dst = n
		}
	}
	duration := func(dst *time.Duration, names ...string) {
		if v, ok := lookup(names...); ok {
			d, err := ParseSeconds(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", names[0], err))
				return
			}
			*dst = d
		}
	}
	boolean := func(dst *bool, names ...string) {
		if v, ok := lookup(names...); ok {
			*dst = strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
		}
	}

	// LinkedIn
	str(&c.LinkedIn.Account, "OTWSCRAPER_ACCOUNT")
	str(&c.LinkedIn.SessionCookie, "OTWSCRAPER_LI_AT")
	str(&c.LinkedIn.GeoURN, "OTWSCRAPER_GEO_URN")

	// Pacing
	duration(&c.Pacing.MinDelay, "OTWSCRAPER_MIN_DELAY", "MIN_DELAY")
	duration(&c.Pacing.MaxDelay, "OTWSCRAPER_MAX_DELAY", "MAX_DELAY")
	duration(&c.Pacing.ScrollPause, "OTWSCRAPER_SCROLL_PAUSE", "SCROLL_PAUSE")
	integer(&c.Pacing.LongPauseInterval, "OTWSCRAPER_LONG_PAUSE_INTERVAL", "LONG_PAUSE_INTERVAL")

	// Safety
	integer(&c.Safety.MaxProfilesPerSession, "OTWSCRAPER_MAX_PROFILES_PER_SESSION", "MAX_PROFILES_PER_SESSION")
	integer(&c.Safety.PageLoadsPerHour, "OTWSCRAPER_PAGE_LOADS_PER_HOUR")

	// Browser
	boolean(&c.Browser.Headless, "OTWSCRAPER_HEADLESS")
	str(&c.Browser.UserDataDir, "OTWSCRAPER_USER_DATA_DIR", "CHROME_USER_DATA_DIR")
	str(&c.Browser.BinPath, "OTWSCRAPER_CHROME_BIN")

	// Output
	str(&c.Output.Directory, "OTWSCRAPER_OUTPUT_DIR")
	str(&c.Output.Format, "OTWSCRAPER_OUTPUT_FORMAT")
	str(&c.Sheets.SpreadsheetID, "OTWSCRAPER_SHEETS_ID", "GOOGLE_SHEETS_ID")
	str(&c.Sheets.CredentialsPath, "OTWSCRAPER_GOOGLE_CREDENTIALS", "GOOGLE_CREDENTIALS_PATH")
	str(&c.SQLite.Path, "OTWSCRAPER_SQLITE_PATH")

	// Notifications
	boolean(&c.Notifications.Enabled, "OTWSCRAPER_NOTIFICATIONS_ENABLED")

	// Logging level
	str(&c.Logging.Level, "OTWSCRAPER_LOG_LEVEL")

	return errors.Join(errs...)
}

func lookup(names ...string) (string, bool) {
	for _, n := range names {
		if v, ok := os.LookupEnv(n); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// ParseSeconds accepts a Go duration ("1500ms") or a plain number of
// seconds ("2", "0.5").
func ParseSeconds(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return time.Duration(f * float64(time.Second)), nil
}

// LoadFromFile overlays the YAML file at path on c. An empty path searches
// the usual locations and is a no-op when none exists.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		if path = c.findConfigFile(); path == "" {
			return nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// DefaultPath is where config init writes the file
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "otwscraper", "config.yaml")
}

// findConfigFile returns the first existing candidate: the working
// directory wins over the user config directory
func (c *Config) findConfigFile() string {
	for _, candidate := range []string{
		".otwscraper.yaml",
		".otwscraper.yml",
		DefaultPath(),
		strings.TrimSuffix(DefaultPath(), ".yaml") + ".yml",
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if err := c.PacingPolicy().Validate(); err != nil {
		errs = append(errs, err)
	}

	// Safety limits
	if c.Safety.MaxProfilesPerSession <= 0 {
		errs = append(errs, errors.New("max profiles per session must be positive"))
	}
	if c.Safety.ExhaustionThreshold <= 0 {
		errs = append(errs, errors.New("exhaustion threshold must be positive"))
	}
	if c.Safety.PageLoadsPerHour <= 0 {
		errs = append(errs, errors.New("page loads per hour must be positive"))
	}
	if c.Safety.NavigationRetries < 0 {
		errs = append(errs, errors.New("navigation retries cannot be negative"))
	}
	if c.Safety.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}

	// Output
	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	switch strings.ToLower(c.Output.Format) {
	case FormatCSV:
	case FormatSheets:
		if c.Sheets.SpreadsheetID == "" {
			errs = append(errs, errors.New("sheets output needs a spreadsheet id"))
		}
		if c.Sheets.CredentialsPath == "" {
			errs = append(errs, errors.New("sheets output needs a credentials path"))
		}
	case FormatSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, errors.New("sqlite output needs a database path"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid output format %q", c.Output.Format))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	switch strings.ToLower(c.Notifications.NotificationType) {
	case "terminal", "desktop", "none":
	default:
		errs = append(errs, fmt.Errorf("invalid notification type %q", c.Notifications.NotificationType))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file. The session cookie is never
// written.
func (c *Config) Save(path string) error {
	out := *c
	out.LinkedIn.SessionCookie = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0600)
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["output-dir"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Format = strings.ToLower(v)
	}
	if v, ok := flags["sheet-id"].(string); ok && v != "" {
		c.Sheets.SpreadsheetID = v
	}
	if v, ok := flags["credentials"].(string); ok && v != "" {
		c.Sheets.CredentialsPath = v
	}
	if v, ok := flags["clear-sheet"].(bool); ok {
		c.Sheets.ClearExisting = v
	}
	if v, ok := flags["db"].(string); ok && v != "" {
		c.SQLite.Path = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["user-data-dir"].(string); ok && v != "" {
		c.Browser.UserDataDir = v
	}
	if v, ok := flags["geo-urn"].(string); ok && v != "" {
		c.LinkedIn.GeoURN = v
	}
	if v, ok := flags["location-filter"].(bool); ok {
		c.LinkedIn.ApplyLocationFilter = v
	}
	if v, ok := flags["strict-location"].(bool); ok {
		c.LinkedIn.StrictLocation = v
	}
	if v, ok := flags["account"].(string); ok && v != "" {
		c.LinkedIn.Account = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load builds the effective configuration. Later layers win:
// defaults, config file, .env files and the environment, then flags.
// godotenv never overrides variables that are already set.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".otwscraper.env"))
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
