// Package export delivers harvested profiles to their destinations: a CSV
// file, a Google Sheets spreadsheet or a SQLite database.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"otwscraper/pkg/models"
)

// Batch is one run's records plus the metadata sinks may record with them
type Batch struct {
	RunID      string                 `json:"run_id"`
	Query      models.SearchQuery     `json:"query"`
	Abort      models.AbortReason     `json:"abort_reason,omitempty"`
	Records    []models.ProfileRecord `json:"records"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
}

// Sink consumes a whole batch or fails; it never leaves a partial delivery
// it knows about.
type Sink interface {
	Name() string
	Write(ctx context.Context, batch Batch) error
}

// Report is the outcome of one sink
type Report struct {
	Sink     string
	Location string
	Err      error
	Duration time.Duration
}

// Reports collects the outcome of every sink of a delivery
type Reports []Report

// OK is true when every sink succeeded
func (r Reports) OK() bool {
	for _, rep := range r {
		if rep.Err != nil {
			return false
		}
	}
	return true
}

// Err joins the failures, or returns nil
func (r Reports) Err() error {
	var errs []error
	for _, rep := range r {
		if rep.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rep.Sink, rep.Err))
		}
	}
	return errors.Join(errs...)
}

// Locator is implemented by sinks that can say where the last write went
type Locator interface {
	Location() string
}

// Multi delivers a batch to several sinks, one after the other. A failing
// sink does not stop the others.
type Multi []Sink

func (m Multi) Name() string { return "multi" }

// Write delivers to every sink and joins the failures
func (m Multi) Write(ctx context.Context, batch Batch) error {
	return m.Deliver(ctx, batch).Err()
}

// Deliver writes batch to every sink and reports each outcome
func (m Multi) Deliver(ctx context.Context, batch Batch) Reports {
	reports := make(Reports, 0, len(m))
	for _, sink := range m {
		start := time.Now()
		err := sink.Write(ctx, batch)
		rep := Report{Sink: sink.Name(), Err: err, Duration: time.Since(start)}
		if loc, ok := sink.(Locator); ok && err == nil {
			rep.Location = loc.Location()
		}
		reports = append(reports, rep)
	}
	return reports
}
