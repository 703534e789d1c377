package export

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	errs "otwscraper/pkg/errors"
	"otwscraper/pkg/logger"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	profile_url     TEXT PRIMARY KEY,
	first_name      TEXT NOT NULL,
	last_name       TEXT NOT NULL,
	full_name       TEXT NOT NULL,
	headline        TEXT NOT NULL DEFAULT '',
	current_company TEXT NOT NULL DEFAULT '',
	location        TEXT NOT NULL DEFAULT '',
	open_to_work    INTEGER NOT NULL,
	scraped_at      TEXT NOT NULL,
	run_id          TEXT NOT NULL,
	first_seen_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	job_title    TEXT NOT NULL,
	location     TEXT NOT NULL,
	max_profiles INTEGER NOT NULL,
	include_all  INTEGER NOT NULL,
	outcome      TEXT NOT NULL,
	records      INTEGER NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL
);`

const upsertProfile = `
INSERT INTO profiles (
	profile_url, first_name, last_name, full_name, headline,
	current_company, location, open_to_work, scraped_at, run_id, first_seen_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(profile_url) DO UPDATE SET
	first_name      = excluded.first_name,
	last_name       = excluded.last_name,
	full_name       = excluded.full_name,
	headline        = excluded.headline,
	current_company = excluded.current_company,
	location        = excluded.location,
	open_to_work    = excluded.open_to_work,
	scraped_at      = excluded.scraped_at,
	run_id          = excluded.run_id`

const insertRun = `
INSERT OR REPLACE INTO runs (
	run_id, job_title, location, max_profiles, include_all,
	outcome, records, started_at, finished_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteSink upserts profiles keyed on their URL and records one row per
// run. A batch is written in a single transaction.
type SQLiteSink struct {
	path string
	log  logger.Logger
}

// NewSQLiteSink returns a sink writing to the database file at path
func NewSQLiteSink(path string, log logger.Logger) *SQLiteSink {
	if log == nil {
		log = logger.GetLogger()
	}
	return &SQLiteSink{path: path, log: log}
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Location() string { return s.path }

func (s *SQLiteSink) Write(ctx context.Context, batch Batch) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errs.New(errs.KindExport, "create database dir", err)
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return errs.New(errs.KindExport, "open database", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return errs.New(errs.KindExport, "create schema", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errs.New(errs.KindExport, "begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertProfile)
	if err != nil {
		return errs.New(errs.KindExport, "prepare upsert", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range batch.Records {
		_, err := stmt.ExecContext(ctx,
			r.ProfileURL, r.FirstName, r.LastName, r.FullName(), r.Headline,
			r.CurrentCompany, r.Location, r.OpenToWork, r.ScrapedAt.UTC().Format(time.RFC3339),
			batch.RunID, now,
		)
		if err != nil {
			return errs.New(errs.KindExport, "upsert profile", err)
		}
	}

	if batch.RunID != "" {
		_, err := tx.ExecContext(ctx, insertRun,
			batch.RunID, batch.Query.JobTitle, batch.Query.Location, batch.Query.MaxProfiles,
			batch.Query.IncludeAllProfiles, batch.Abort.String(), len(batch.Records),
			batch.StartedAt.UTC().Format(time.RFC3339), batch.FinishedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return errs.New(errs.KindExport, "record run", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.New(errs.KindExport, "commit", err)
	}

	s.log.InfoWithFields("Exported profiles to SQLite", map[string]interface{}{
		"records": len(batch.Records),
		"path":    s.path,
		"run_id":  batch.RunID,
	})
	return nil
}

