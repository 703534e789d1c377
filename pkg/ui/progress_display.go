package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"otwscraper/pkg/harvest"
	"otwscraper/pkg/models"
)

// ProgressDisplay prints a single refreshing progress line for a harvest
// run. It implements harvest.Observer. In verbose mode every accepted
// profile and skipped card gets its own line instead.
type ProgressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	label     string
	target    int
	collected int
	pages     int
	skipped   int
	pauses    int
	last      string
	startTime time.Time
	now       func() time.Time
	verbose   bool
}

var _ harvest.Observer = (*ProgressDisplay)(nil)

// NewProgressDisplay creates a display for q writing to out
func NewProgressDisplay(out io.Writer, q models.SearchQuery, verbose bool) *ProgressDisplay {
	label := q.JobTitle
	if q.Location != "" {
		label += " @ " + q.Location
	}
	return &ProgressDisplay{
		out:       out,
		label:     label,
		target:    q.MaxProfiles,
		startTime: time.Now(),
		now:       time.Now,
		verbose:   verbose,
	}
}

// PageLoaded records a result page load
func (p *ProgressDisplay) PageLoaded(page, newCards int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pages = page
	if p.verbose {
		fmt.Fprintf(p.out, "%s page %d • %d new cards\n", Magenta("[PAGE]"), page, newCards)
		return
	}
	p.printProgress("")
}

// RecordAccepted records one collected profile
func (p *ProgressDisplay) RecordAccepted(rec models.ProfileRecord, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.collected = total
	p.last = rec.FullName()
	if p.verbose {
		fmt.Fprintf(p.out, "%s %s • %s\n", Green("✓"), rec.FullName(), Dim(truncate(rec.Headline, 60)))
		return
	}
	p.printProgress("")
}

// CardSkipped records a card that produced no profile
func (p *ProgressDisplay) CardSkipped(reason models.SkipReason, detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.skipped++
	if p.verbose {
		fmt.Fprintf(p.out, "%s %s %s\n", Dim("·"), Dim(string(reason)), Dim(truncate(detail, 60)))
	}
}

// Pausing shows the upcoming wait
func (p *ProgressDisplay) Pausing(d time.Duration, long bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !long {
		return
	}
	p.pauses++
	if p.verbose {
		fmt.Fprintf(p.out, "%s long pause %s\n", Yellow("[PAUSE]"), FormatDuration(d))
		return
	}
	p.printProgress(Yellow("pausing " + FormatDuration(d)))
}

func (p *ProgressDisplay) printProgress(status string) {
	elapsed := p.now().Sub(p.startTime)

	line := fmt.Sprintf("%s [%s] %d/%d • page %d • %.1f/min",
		Cyan(p.label),
		renderBar(p.collected, p.target, barWidth),
		p.collected,
		p.target,
		p.pages,
		perMinute(p.collected, elapsed),
	)
	if p.skipped > 0 {
		line += " • " + Dim(fmt.Sprintf("%d skipped", p.skipped))
	}
	if status != "" {
		line += " • " + status
	} else if p.last != "" {
		line += " • " + truncate(p.last, 30)
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

// Complete prints the run summary
func (p *ProgressDisplay) Complete(res *harvest.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mark := Green("✓")
	if !res.Abort.Successful() {
		mark = Yellow("!")
	}
	fmt.Fprintf(p.out, "\n\n%s Collected %d open-to-work profiles for %s\n", mark, len(res.Records), Cyan(p.label))
	fmt.Fprintf(p.out, "  Outcome:  %s (%s)\n", res.Abort.String(), res.Abort.Description())
	fmt.Fprintf(p.out, "  Pages:    %d\n", res.Stats.Advances+1)
	fmt.Fprintf(p.out, "  Cards:    %d seen, %d skipped, %d duplicates\n",
		res.Stats.CardsSurfaced, res.Stats.SkippedTotal(), res.Stats.Duplicates)
	fmt.Fprintf(p.out, "  Duration: %s\n", FormatDuration(res.Duration()))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
