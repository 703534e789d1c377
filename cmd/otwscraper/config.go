package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"otwscraper/pkg/auth"
	"otwscraper/pkg/config"
	"otwscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage otwscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (OTWSCRAPER_*)
  - .env file
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.otwscraper.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the configuration after merging every source.

The session cookie is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the merged configuration.

This command checks:
  - YAML syntax
  - Pacing ranges (min_delay <= max_delay, positive intervals)
  - Safety limits
  - Output format and the settings it needs`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# otwscraper configuration
#
# Environment variables prefixed with OTWSCRAPER_ override this file,
# for example OTWSCRAPER_LI_AT, OTWSCRAPER_MAX_DELAY, OTWSCRAPER_HEADLESS.

linkedin:
  # Stored account whose li_at cookie is used (see 'otwscraper auth login')
  account: "default"

  # Numeric LinkedIn geo id; adds a structured location filter to the URL
  geo_urn: ""

  # Apply the Locations filter through the page instead of keywords
  apply_location_filter: false

  # Drop profiles whose location does not contain the searched location
  strict_location: false

# Delays between browser actions
pacing:
  min_delay: 2s
  max_delay: 5s
  scroll_pause: 1s

  # Take a long pause every N actions
  long_pause_interval: 50

  # Long pauses last between min_delay and max_delay times this factor
  long_pause_factor: 6

# Limits
safety:
  # Hard ceiling on profiles per run, whatever --max says
  max_profiles_per_session: 500

  # Stop after this many result pages in a row bring nothing new
  exhaustion_threshold: 3

  page_loads_per_hour: 100
  navigation_retries: 3
  navigation_timeout: 45s

browser:
  headless: false

  # Reuse a Chrome profile that is already logged in
  user_data_dir: ""

  # Chrome binary; empty downloads or finds one
  bin_path: ""

output:
  # csv, sheets or sqlite
  format: "csv"
  directory: "output"

sheets:
  spreadsheet_id: ""
  sheet_name: "Sheet1"
  credentials_path: "credentials.json"
  clear_existing: false

sqlite:
  path: "output/otwscraper.db"

notifications:
  enabled: true
  on_complete: true
  on_error: true
  on_rate_limit: true

  # terminal, desktop or none
  notification_type: "terminal"

logging:
  # debug, info, warn or error
  level: "info"

  # Also write JSON logs to this file
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".otwscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintln(ui.Out, "\nTo overwrite, first remove the existing file:")
		fmt.Fprintf(ui.Out, "  rm %s\n", configPath)
		return withExitCode(1, fmt.Errorf("configuration file already exists: %s", configPath))
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(ui.Out, "\nNext steps:")
	fmt.Fprintln(ui.Out, "1. Store your LinkedIn session with 'otwscraper auth login'")
	fmt.Fprintln(ui.Out, "2. Run 'otwscraper config validate' to check the configuration")
	fmt.Fprintln(ui.Out, "3. Start with 'otwscraper search --job \"QA Engineer\" --location Lille'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return withExitCode(1, fmt.Errorf("failed to load configuration: %w", err))
	}

	display := *cfg
	if display.LinkedIn.SessionCookie != "" {
		masked := auth.SanitizeAccount(&auth.Account{SessionCookie: display.LinkedIn.SessionCookie})
		display.LinkedIn.SessionCookie = masked.SessionCookie
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	_, err := config.Load(configFile, nil)
	if err == nil {
		ui.PrintSuccess("Configuration is valid")
		return nil
	}

	ui.PrintError("Configuration is invalid")
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			fmt.Fprintf(ui.Out, "  • %v\n", e)
		}
	} else {
		fmt.Fprintf(ui.Out, "  • %v\n", err)
	}
	return withExitCode(1, nil)
}
