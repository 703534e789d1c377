package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	errs "otwscraper/pkg/errors"
	"otwscraper/pkg/logger"
	"otwscraper/pkg/storage"
)

// CSVFileName is the export file name for a run finished at t
func CSVFileName(t time.Time) string {
	return fmt.Sprintf("linkedin_opentowork_%s.csv", t.Format("20060102_150405"))
}

// CSVSink writes one timestamped CSV file per batch into the output directory
type CSVSink struct {
	store *storage.Manager
	log   logger.Logger
	last  string
}

// NewCSVSink creates a CSV sink writing through store
func NewCSVSink(store *storage.Manager, log logger.Logger) *CSVSink {
	if log == nil {
		log = logger.GetLogger()
	}
	return &CSVSink{store: store, log: log}
}

func (s *CSVSink) Name() string { return "csv" }

// Location is the path of the last file written
func (s *CSVSink) Location() string { return s.last }

func (s *CSVSink) Write(ctx context.Context, batch Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stamp := batch.FinishedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}

	path, err := s.store.WriteFile(CSVFileName(stamp), func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeaders); err != nil {
			return err
		}
		for _, rec := range batch.Records {
			if err := cw.Write(csvRow(rec)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return errs.New(errs.KindExport, "write csv", err)
	}

	s.last = path
	s.log.InfoWithFields("Exported profiles to CSV", map[string]interface{}{
		"records": len(batch.Records),
		"path":    path,
	})
	return nil
}
