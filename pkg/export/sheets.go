package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	errs "otwscraper/pkg/errors"
	"otwscraper/pkg/logger"
	"otwscraper/pkg/ratelimit"
	"otwscraper/pkg/retry"
)

// DefaultSheetName is the tab written to when none is configured
const DefaultSheetName = "Sheet1"

// SheetsConfig configures the Google Sheets sink
type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsPath string
	// ClearExisting empties the tab right before the append. If the append
	// then fails the previous contents are gone; the batch is spooled.
	ClearExisting bool
	// RequestsPerMinute bounds API calls; 0 means 60
	RequestsPerMinute int
	// Retry overrides the retry policy for API calls
	Retry *retry.Config
	// ClientOptions replace the credentials file when set
	ClientOptions []option.ClientOption
	Logger        logger.Logger
}

// SheetsSink appends records to a spreadsheet tab, writing the header row
// first when the tab is empty.
type SheetsSink struct {
	cfg     SheetsConfig
	svc     *sheets.Service
	retrier *retry.Retrier
	limiter *ratelimit.TokenBucket
	log     logger.Logger
}

// NewSheetsSink authenticates with a service account and returns the sink
func NewSheetsSink(ctx context.Context, cfg SheetsConfig) (*SheetsSink, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errs.New(errs.KindConfig, "sheets sink", errors.New("spreadsheet id is required"))
	}
	if cfg.SheetName == "" {
		cfg.SheetName = DefaultSheetName
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	opts := cfg.ClientOptions
	if len(opts) == 0 {
		if cfg.CredentialsPath == "" {
			return nil, errs.New(errs.KindConfig, "sheets sink", errors.New("credentials path is required"))
		}
		if _, err := os.Stat(cfg.CredentialsPath); err != nil {
			return nil, errs.New(errs.KindConfig, "sheets sink", fmt.Errorf("credentials file: %w", err))
		}
		opts = []option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsPath),
			option.WithScopes(sheets.SpreadsheetsScope),
		}
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errs.New(errs.KindAuth, "sheets client", err)
	}

	rc := cfg.Retry
	if rc == nil {
		rc = &retry.Config{
			MaxAttempts: 4,
			BackoffFor:  retry.NewErrorTypeBackoff().ForError,
			RetryIf:     retry.DefaultRetryIf,
		}
	}
	rcCopy := *rc
	if rcCopy.Logger == nil {
		rcCopy.Logger = cfg.Logger
	}

	return &SheetsSink{
		cfg:     cfg,
		svc:     svc,
		retrier: retry.NewRetrier(&rcCopy),
		limiter: ratelimit.NewTokenBucket(cfg.RequestsPerMinute, time.Minute),
		log:     cfg.Logger,
	}, nil
}

func (s *SheetsSink) Name() string { return "sheets" }

// Location is the spreadsheet URL
func (s *SheetsSink) Location() string {
	return "https://docs.google.com/spreadsheets/d/" + s.cfg.SpreadsheetID
}

// Write appends the batch in a single request. With ClearExisting the tab is
// cleared only once the rows are ready, immediately before the append.
func (s *SheetsSink) Write(ctx context.Context, batch Batch) error {
	if len(batch.Records) == 0 {
		if s.cfg.ClearExisting {
			if err := s.clear(ctx); err != nil {
				return err
			}
		}
		s.log.Info("No records to append to the spreadsheet")
		return nil
	}

	var before int
	if !s.cfg.ClearExisting {
		err := s.call(ctx, "read rows", func(ctx context.Context) error {
			var err error
			before, err = s.countRows(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}

	header := before == 0
	values := make([][]interface{}, 0, len(batch.Records)+1)
	if header {
		values = append(values, sheetHeaders)
	}
	for _, rec := range batch.Records {
		values = append(values, sheetRow(rec))
	}

	if s.cfg.ClearExisting {
		if err := s.clear(ctx); err != nil {
			return err
		}
	}

	updated, err := s.appendRows(ctx, values, before)
	if err != nil {
		return err
	}

	s.log.InfoWithFields("Exported profiles to Google Sheets", map[string]interface{}{
		"records":     len(batch.Records),
		"rows":        updated,
		"header":      header,
		"spreadsheet": s.cfg.SpreadsheetID,
	})
	return nil
}

func (s *SheetsSink) clear(ctx context.Context) error {
	return s.call(ctx, "clear sheet", func(ctx context.Context) error {
		_, err := s.svc.Spreadsheets.Values.Clear(s.cfg.SpreadsheetID, s.cfg.SheetName+"!A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
		return err
	})
}

// countRows is the number of rows holding data in the record columns
func (s *SheetsSink) countRows(ctx context.Context) (int, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, s.cfg.SheetName+"!A:I").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	return len(resp.Values), nil
}

// appendRows appends values to a tab that held before rows. An append can
// be applied even though its response is lost or a 5xx, so every retry
// first recounts the rows and stops if they are already there.
func (s *SheetsSink) appendRows(ctx context.Context, values [][]interface{}, before int) (int64, error) {
	var updated int64
	attempt := 0
	err := s.call(ctx, "append rows", func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			rows, err := s.countRows(ctx)
			if err != nil {
				return err
			}
			if rows >= before+len(values) {
				s.log.WarnWithFields("Earlier append already landed; not sending it again", map[string]interface{}{
					"rows_before": before,
					"rows_now":    rows,
				})
				updated = int64(len(values))
				return nil
			}
		}

		resp, err := s.svc.Spreadsheets.Values.Append(s.cfg.SpreadsheetID, s.cfg.SheetName+"!A:I", &sheets.ValueRange{Values: values}).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		if resp.Updates != nil {
			updated = resp.Updates.UpdatedRows
		}
		return nil
	})
	return updated, err
}

// call runs one API request under the quota limiter and retry policy
func (s *SheetsSink) call(ctx context.Context, op string, fn func(context.Context) error) error {
	return s.retrier.WithOp(op).Do(ctx, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return classifyAPIError(op, err)
	})
}

func classifyAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return errs.WithCode(errs.KindForStatus(apiErr.Code), op, apiErr.Code, err)
	}
	return errs.New(errs.KindServer, op, err)
}
