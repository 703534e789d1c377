package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	// Test default values
	if config.Pacing.MinDelay != 2*time.Second {
		t.Errorf("Expected default min delay to be 2s, got %v", config.Pacing.MinDelay)
	}

	if config.Pacing.MaxDelay != 5*time.Second {
		t.Errorf("Expected default max delay to be 5s, got %v", config.Pacing.MaxDelay)
	}

	if config.Pacing.LongPauseInterval != 50 {
		t.Errorf("Expected default long pause interval to be 50, got %d", config.Pacing.LongPauseInterval)
	}

	if config.Safety.MaxProfilesPerSession != 500 {
		t.Errorf("Expected default session cap to be 500, got %d", config.Safety.MaxProfilesPerSession)
	}

	if config.Safety.ExhaustionThreshold != 3 {
		t.Errorf("Expected default exhaustion threshold to be 3, got %d", config.Safety.ExhaustionThreshold)
	}

	if config.Output.Directory != "output" {
		t.Errorf("Expected default output directory to be output, got %s", config.Output.Directory)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OTWSCRAPER_MIN_DELAY", "1.5")
	t.Setenv("OTWSCRAPER_MAX_DELAY", "4s")
	t.Setenv("SCROLL_PAUSE", "0.5")
	t.Setenv("LONG_PAUSE_INTERVAL", "20")
	t.Setenv("MAX_PROFILES_PER_SESSION", "200")
	t.Setenv("CHROME_USER_DATA_DIR", "/tmp/chrome-profile")
	t.Setenv("GOOGLE_SHEETS_ID", "sheet-from-env")
	t.Setenv("OTWSCRAPER_OUTPUT_DIR", "/tmp/test-output")
	t.Setenv("OTWSCRAPER_NOTIFICATIONS_ENABLED", "false")
	t.Setenv("OTWSCRAPER_LOG_LEVEL", "debug")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	// Test loaded values
	if config.Pacing.MinDelay != 1500*time.Millisecond {
		t.Errorf("Expected min delay to be 1.5s, got %v", config.Pacing.MinDelay)
	}

	if config.Pacing.MaxDelay != 4*time.Second {
		t.Errorf("Expected max delay to be 4s, got %v", config.Pacing.MaxDelay)
	}

	if config.Pacing.ScrollPause != 500*time.Millisecond {
		t.Errorf("Expected scroll pause to be 500ms, got %v", config.Pacing.ScrollPause)
	}

	if config.Pacing.LongPauseInterval != 20 {
		t.Errorf("Expected long pause interval to be 20, got %d", config.Pacing.LongPauseInterval)
	}

	if config.Safety.MaxProfilesPerSession != 200 {
		t.Errorf("Expected session cap to be 200, got %d", config.Safety.MaxProfilesPerSession)
	}

	if config.Browser.UserDataDir != "/tmp/chrome-profile" {
		t.Errorf("Expected user data dir to be /tmp/chrome-profile, got %s", config.Browser.UserDataDir)
	}

	if config.Sheets.SpreadsheetID != "sheet-from-env" {
		t.Errorf("Expected spreadsheet id to be sheet-from-env, got %s", config.Sheets.SpreadsheetID)
	}

	if config.Output.Directory != "/tmp/test-output" {
		t.Errorf("Expected output directory to be /tmp/test-output, got %s", config.Output.Directory)
	}

	if config.Notifications.Enabled != false {
		t.Errorf("Expected notifications to be disabled, got %v", config.Notifications.Enabled)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvPrefixedNameWins(t *testing.T) {
	t.Setenv("MIN_DELAY", "3")
	t.Setenv("OTWSCRAPER_MIN_DELAY", "1")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Pacing.MinDelay != time.Second {
		t.Errorf("Expected min delay to be 1s, got %v", config.Pacing.MinDelay)
	}
}

func TestLoadFromEnvRejectsGarbage(t *testing.T) {
	t.Setenv("MAX_PROFILES_PER_SESSION", "lots")
	t.Setenv("MIN_DELAY", "soon")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	if err == nil {
		t.Fatal("Expected an error for malformed values")
	}

	for _, want := range []string{"OTWSCRAPER_MAX_PROFILES_PER_SESSION", "OTWSCRAPER_MIN_DELAY"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %s, got %v", want, err)
		}
	}

	if config.Safety.MaxProfilesPerSession != 500 {
		t.Errorf("Expected session cap to keep its default, got %d", config.Safety.MaxProfilesPerSession)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "min delay above max delay",
			mutate:    func(c *Config) { c.Pacing.MinDelay = 10 * time.Second },
			wantError: "max delay must not be lower than min delay",
		},
		{
			name:      "negative min delay",
			mutate:    func(c *Config) { c.Pacing.MinDelay = -time.Second },
			wantError: "min delay cannot be negative",
		},
		{
			name:      "zero session cap",
			mutate:    func(c *Config) { c.Safety.MaxProfilesPerSession = 0 },
			wantError: "max profiles per session must be positive",
		},
		{
			name:      "sheets without id",
			mutate:    func(c *Config) { c.Output.Format = FormatSheets },
			wantError: "sheets output needs a spreadsheet id",
		},
		{
			name: "sheets with id",
			mutate: func(c *Config) {
				c.Output.Format = FormatSheets
				c.Sheets.SpreadsheetID = "abc"
			},
		},
		{
			name:      "unknown format",
			mutate:    func(c *Config) { c.Output.Format = "xlsx" },
			wantError: `invalid output format "xlsx"`,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "invalid" },
			wantError: "invalid log level",
		},
		{
			name:      "invalid notification type",
			mutate:    func(c *Config) { c.Notifications.NotificationType = "pager" },
			wantError: "invalid notification type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantError == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantError)
			}
		})
	}
}

func TestValidateJoinsAllViolations(t *testing.T) {
	config := DefaultConfig()
	config.Safety.MaxProfilesPerSession = 0
	config.Safety.PageLoadsPerHour = 0
	config.Logging.Level = "loud"

	err := config.Validate()
	if err == nil {
		t.Fatal("Expected validation to fail")
	}
	if got := strings.Count(err.Error(), "\n") + 1; got != 3 {
		t.Errorf("Expected 3 violations, got %d: %v", got, err)
	}
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"2", 2 * time.Second},
		{"0.25", 250 * time.Millisecond},
		{"1500ms", 1500 * time.Millisecond},
		{"1m", time.Minute},
	}
	for _, tt := range tests {
		got, err := ParseSeconds(tt.in)
		if err != nil {
			t.Errorf("ParseSeconds(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeconds(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseSeconds("later"); err == nil {
		t.Error("Expected an error for a non-numeric duration")
	}
}
