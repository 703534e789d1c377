package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"otwscraper/pkg/checkpoint"
	"otwscraper/pkg/config"
	"otwscraper/pkg/logger"
	"otwscraper/pkg/scraper"
	"otwscraper/pkg/ui"
)

var (
	// Export command flags
	exportList   bool
	exportFormat string
	exportDir    string
	exportSheet  string
	exportCreds  string
	exportDB     string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Retry the export of a run whose export failed",
	Long: `Deliver a spooled record set again.

When an export fails, the collected profiles are kept in the checkpoint
directory instead of being lost. This command sends them again, by default
to the sink that failed. Without a run id the newest spool is used. The
spool is removed once the export succeeds.`,
	Example: `  # List spooled runs
  otwscraper export --list

  # Retry the newest one
  otwscraper export

  # Send a specific run to a CSV file instead
  otwscraper export 3f6c2a0e-... --output csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	f := exportCmd.Flags()
	f.BoolVar(&exportList, "list", false, "list spooled runs")
	f.StringVarP(&exportFormat, "output", "o", "", "output format: csv, sheets or sqlite (default: the sink that failed)")
	f.StringVar(&exportDir, "output-dir", "", "directory for CSV files")
	f.StringVar(&exportSheet, "sheet-id", "", "Google Sheets spreadsheet id")
	f.StringVar(&exportCreds, "credentials", "", "Google service account credentials file")
	f.StringVar(&exportDB, "db", "", "SQLite database path")
}

func runExport(cmd *cobra.Command, args []string) error {
	mgr, err := checkpoint.NewManager()
	if err != nil {
		return withExitCode(1, err)
	}

	if exportList {
		return listSpools(mgr)
	}

	flags := make(map[string]interface{})
	for name, v := range map[string]string{
		"output-dir":  exportDir,
		"sheet-id":    exportSheet,
		"credentials": exportCreds,
		"db":          exportDB,
	} {
		if cmd.Flags().Changed(name) {
			flags[name] = v
		}
	}
	cfg, err := loadConfig(flags, false)
	if err != nil {
		return err
	}

	var spool *checkpoint.Spool
	if len(args) > 0 {
		spool, err = mgr.Load(args[0])
	} else {
		spool, err = mgr.Latest()
	}
	if err != nil {
		return withExitCode(1, err)
	}
	if spool == nil {
		if len(args) > 0 {
			return withExitCode(1, fmt.Errorf("no spooled run %s", args[0]))
		}
		return withExitCode(1, errors.New("nothing to export"))
	}

	format := exportTarget(exportFormat, spool.Failed, cfg.Output.Format)
	log := logger.WithField("run_id", spool.Batch.RunID)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, err := scraper.BuildSinks(ctx, cfg, format, log)
	if err != nil {
		return withExitCode(1, err)
	}
	s, err := scraper.New(ctx, cfg, scraper.WithSinks(sinks), scraper.WithSpooler(mgr))
	if err != nil {
		return withExitCode(1, err)
	}

	ui.PrintInfo("Run", spool.Batch.RunID)
	ui.PrintInfo("Records", strconv.Itoa(len(spool.Batch.Records)))
	ui.PrintInfo("Output", format)

	out := s.Export(ctx, spool.Batch)
	printReports(out.Reports)
	if out.ExitCode != scraper.ExitOK {
		return withExitCode(out.ExitCode, nil)
	}
	ui.PrintSuccess("Export complete")
	return nil
}

// exportTarget picks the format to retry with: the flag, else the first
// failed sink, else the configured format
func exportTarget(flag string, failed []string, configured string) string {
	if flag != "" {
		return flag
	}
	for _, name := range failed {
		switch name {
		case config.FormatCSV, config.FormatSheets, config.FormatSQLite:
			return name
		}
	}
	return configured
}

func listSpools(mgr *checkpoint.Manager) error {
	infos, err := mgr.List()
	if err != nil {
		return withExitCode(1, err)
	}
	if len(infos) == 0 {
		ui.PrintSuccess("No spooled runs")
		return nil
	}

	fmt.Fprintf(ui.Out, "\nSpooled runs (%d):\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(ui.Out, "  • %s  %s  %d records  %s\n",
			ui.Cyan(info.RunID),
			info.Query,
			info.Records,
			ui.Dim(info.SavedAt.Local().Format("2006-01-02 15:04")))
	}
	return nil
}
