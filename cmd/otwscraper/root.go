package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"otwscraper/pkg/config"
	"otwscraper/pkg/logger"
	"otwscraper/pkg/ui"
)

var (
	// Version information
	version   = "0.3.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "otwscraper",
	Short: "Collect LinkedIn profiles that are open to work",
	Long: `otwscraper searches LinkedIn people results for a job title and location and
collects the profiles that show the "Open to work" signal.

It drives a real Chrome session with human-like pacing:
  - randomized delays between every action and periodic long pauses
  - a per-session action ceiling
  - immediate stop on CAPTCHA, throttling or login pages

Results go to a CSV file, a Google Sheets spreadsheet or a SQLite database.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}
		logger.Version = version

		switch cmd.Name() {
		case "version", "help", "completion", "show":
		default:
			ui.PrintLogo()
		}
	},
}

// exitError carries a process exit code out of a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			ui.PrintError("Error", exit.err)
		}
		os.Exit(exit.code)
	}
	ui.PrintError("Error", err)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.otwscraper.yaml or ~/.config/otwscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every collected profile instead of a progress line")

	rootCmd.SetVersionTemplate(`otwscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the configuration with the given flag overrides and
// starts the global logger from it.
func loadConfig(flags map[string]interface{}, disableConsole bool) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, withExitCode(1, err)
	}

	cfg.Logging.DisableConsole = disableConsole
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, withExitCode(1, fmt.Errorf("failed to initialize logger: %w", err))
	}
	return cfg, nil
}
