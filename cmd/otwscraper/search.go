package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"otwscraper/pkg/auth"
	"otwscraper/pkg/config"
	"otwscraper/pkg/export"
	"otwscraper/pkg/harvest"
	"otwscraper/pkg/logger"
	"otwscraper/pkg/models"
	"otwscraper/pkg/scraper"
	"otwscraper/pkg/ui"
	"otwscraper/pkg/ui/tui"
)

var (
	// Search command flags
	jobTitle       string
	location       string
	maxProfiles    int
	outputFormat   string
	outputDir      string
	sheetID        string
	credentials    string
	clearSheet     bool
	dbPath         string
	headless       bool
	userDataDir    string
	geoURN         string
	locationFilter bool
	strictLocation bool
	allProfiles    bool
	accountName    string
	useTUI         bool
	assumeYes      bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Collect open-to-work profiles for a job title and location",
	Long: `Search LinkedIn people results and collect the profiles that are open to work.

The browser needs a logged-in LinkedIn session, either:
  - a stored li_at cookie (use 'otwscraper auth login' to store one)
  - the OTWSCRAPER_LI_AT environment variable
  - a Chrome profile that is already logged in (--user-data-dir)

Missing job title, location or profile count are asked for interactively.
Whatever was collected is exported, even when the run stops early.`,
	Example: `  # Interactive
  otwscraper search

  # Fully specified, no confirmation
  otwscraper search --job "QA Engineer" --location Lille --max 50 --yes

  # Export to Google Sheets
  otwscraper search -j "Data Analyst" -l Paris -m 100 --output sheets --sheet-id 1AbC...

  # Full-screen dashboard, keep every profile and mark the open ones
  otwscraper search -j "Go Developer" -l Berlin --tui --all-profiles`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	f := searchCmd.Flags()
	f.StringVarP(&jobTitle, "job", "j", "", "job title to search for")
	f.StringVarP(&location, "location", "l", "", "location to search in")
	f.IntVarP(&maxProfiles, "max", "m", 0, "number of profiles to collect")
	f.StringVarP(&outputFormat, "output", "o", "", "output format: csv, sheets or sqlite")
	f.StringVar(&outputDir, "output-dir", "", "directory for CSV files")
	f.StringVar(&sheetID, "sheet-id", "", "Google Sheets spreadsheet id")
	f.StringVar(&credentials, "credentials", "", "Google service account credentials file")
	f.BoolVar(&clearSheet, "clear-sheet", false, "clear the sheet right before appending (its old rows are lost if the append then fails)")
	f.StringVar(&dbPath, "db", "", "SQLite database path")
	f.BoolVar(&headless, "headless", false, "run Chrome without a window")
	f.StringVar(&userDataDir, "user-data-dir", "", "persistent Chrome profile directory")
	f.StringVar(&geoURN, "geo-urn", "", "LinkedIn geo id for a structured location filter")
	f.BoolVar(&locationFilter, "location-filter", false, "apply the Locations filter through the page")
	f.BoolVar(&strictLocation, "strict-location", false, "drop profiles whose location does not match")
	f.BoolVar(&allProfiles, "all-profiles", false, "keep every profile, not only open-to-work ones")
	f.StringVarP(&accountName, "account", "a", "", "stored account to use")
	f.BoolVar(&useTUI, "tui", false, "full-screen dashboard")
	f.BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
}

// searchFlags collects the flags the user actually set
func searchFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := func(name string, v interface{}) {
		if cmd.Flags().Changed(name) {
			flags[name] = v
		}
	}
	set("output", outputFormat)
	set("output-dir", outputDir)
	set("sheet-id", sheetID)
	set("credentials", credentials)
	set("clear-sheet", clearSheet)
	set("db", dbPath)
	set("headless", headless)
	set("user-data-dir", userDataDir)
	set("geo-urn", geoURN)
	set("location-filter", locationFilter)
	set("strict-location", strictLocation)
	set("account", accountName)
	return flags
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(searchFlags(cmd), useTUI)
	if err != nil {
		return err
	}
	logger.WithField("version", version).Info("otwscraper starting")

	p := newPrompter(os.Stdin, ui.Out)
	p.askLocation = !cmd.Flags().Changed("location")
	q, err := p.query(jobTitle, location, maxProfiles, allProfiles)
	if err != nil {
		return withExitCode(1, err)
	}
	q.MaxProfiles = clampMax(q.MaxProfiles, cfg.Safety.MaxProfilesPerSession)

	printPlan(q, cfg)
	if !assumeYes {
		ok, err := p.confirm("Start the search?")
		if err != nil {
			return withExitCode(1, err)
		}
		if !ok {
			ui.PrintWarning("Cancelled")
			return nil
		}
	}

	credManager, err := auth.NewManager()
	if err != nil {
		return withExitCode(1, fmt.Errorf("failed to initialize credential manager: %w", err))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if useTUI {
		return runSearchTUI(ctx, cancel, cfg, credManager, q)
	}

	display := ui.NewProgressDisplay(ui.Out, q, verbose)
	var observer harvest.Observer = display
	if ui.IsQuietMode() {
		observer = harvest.NopObserver{}
	}

	s, err := scraper.New(ctx, cfg,
		scraper.WithCookies(credManager),
		scraper.WithObserver(observer),
	)
	if err != nil {
		return withExitCode(1, err)
	}

	out, err := s.Run(ctx, q)
	if err != nil {
		return withExitCode(runErrorCode(err), err)
	}

	if !ui.IsQuietMode() {
		display.Complete(out.Result)
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, ui.RenderProfiles(out.Result.Records))
	}
	printOutcome(out)
	return exitFor(out)
}

// runSearchTUI runs the harvest behind the dashboard. The dashboard stays
// up after the run until the operator dismisses it.
func runSearchTUI(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, creds scraper.CookieSource, q models.SearchQuery) error {
	terminal := tui.NewTUI(q, cancel)

	s, err := scraper.New(ctx, cfg,
		scraper.WithCookies(creds),
		scraper.WithObserver(terminal),
		scraper.WithNotifier(ui.NewNotifier("none")),
	)
	if err != nil {
		return withExitCode(1, err)
	}

	type runResult struct {
		out *scraper.Outcome
		err error
	}
	done := make(chan runResult, 1)
	go func() {
		terminal.LogInfo("Searching as account '%s', exporting to %s", cfg.LinkedIn.Account, cfg.Output.Format)
		out, err := s.Run(ctx, q)
		var res *harvest.Result
		if out != nil {
			res = out.Result
			terminal.Delivered(out.Reports, out.SpoolPath)
		}
		terminal.Finish(res, err)
		done <- runResult{out: out, err: err}
	}()

	if err := terminal.Start(); err != nil {
		logger.WithError(err).Error("Dashboard failed")
		cancel()
	}
	r := <-done

	if r.err != nil {
		return withExitCode(runErrorCode(r.err), r.err)
	}
	fmt.Fprintln(ui.Out, ui.RenderProfiles(r.out.Result.Records))
	printOutcome(r.out)
	return exitFor(r.out)
}

func runErrorCode(err error) int {
	if scraper.IsUsageError(err) {
		return scraper.ExitUsage
	}
	return scraper.ExitAborted
}

// exitFor turns a non-zero outcome into an exit error without a message;
// the outcome has already been printed.
func exitFor(out *scraper.Outcome) error {
	if out.ExitCode == scraper.ExitOK {
		return nil
	}
	return withExitCode(out.ExitCode, nil)
}

func printPlan(q models.SearchQuery, cfg *config.Config) {
	ui.PrintInfo("Job title", q.JobTitle)
	if q.Location != "" {
		ui.PrintInfo("Location", q.Location)
	}
	ui.PrintInfo("Profiles", strconv.Itoa(q.MaxProfiles))
	if q.IncludeAllProfiles {
		ui.PrintInfo("Mode", "all profiles, open-to-work flagged")
	}
	ui.PrintInfo("Output", cfg.Output.Format)
}

func printOutcome(out *scraper.Outcome) {
	res := out.Result
	summary := fmt.Sprintf("%d profiles, %s (%s)", len(res.Records), res.Abort.String(), res.Abort.Description())
	if out.HarvestErr != nil {
		ui.PrintError("Harvest stopped by an error", out.HarvestErr)
	}
	if res.Abort.Successful() && out.HarvestErr == nil {
		ui.PrintSuccess(summary)
	} else {
		ui.PrintWarning(summary)
	}
	printReports(out.Reports)
	if out.SpoolPath != "" {
		ui.PrintInfo("Records kept in", out.SpoolPath)
		ui.PrintInfo("Retry the export with", "otwscraper export")
	}
}

func printReports(reports export.Reports) {
	for _, rep := range reports {
		if rep.Err != nil {
			ui.PrintError("Export to "+rep.Sink+" failed", rep.Err)
			continue
		}
		ui.PrintInfo("Exported to "+rep.Sink, rep.Location)
	}
}

// clampMax keeps the requested count within the per-session ceiling
func clampMax(requested, sessionCap int) int {
	if sessionCap > 0 && requested > sessionCap {
		ui.PrintWarning(fmt.Sprintf("Limiting to %d profiles (per-session maximum)", sessionCap))
		return sessionCap
	}
	return requested
}

// prompter asks for missing search parameters
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	// askLocation is off when --location was given, even as ""
	askLocation bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out, askLocation: true}
}

func (p *prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// query fills in whatever the flags left empty
func (p *prompter) query(job, loc string, max int, all bool) (models.SearchQuery, error) {
	var err error
	job = strings.TrimSpace(job)
	for job == "" {
		if job, err = p.ask("Job title"); err != nil {
			return models.SearchQuery{}, err
		}
	}

	loc = strings.TrimSpace(loc)
	if loc == "" && p.askLocation {
		if loc, err = p.ask("Location (empty for anywhere)"); err != nil {
			return models.SearchQuery{}, err
		}
	}

	for max < 1 {
		v, err := p.ask("Number of profiles")
		if err != nil {
			return models.SearchQuery{}, err
		}
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 {
			fmt.Fprintln(p.out, "Enter a whole number of at least 1.")
			continue
		}
		max = n
	}

	q := models.SearchQuery{
		JobTitle:           job,
		Location:           loc,
		IncludeAllProfiles: all,
		MaxProfiles:        max,
	}
	return q, q.Validate()
}

func (p *prompter) confirm(question string) (bool, error) {
	answer, err := p.ask(question + " (Y/n)")
	if err != nil {
		return false, err
	}
	return answer == "" || strings.HasPrefix(strings.ToLower(answer), "y"), nil
}
