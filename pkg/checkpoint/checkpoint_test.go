package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"otwscraper/pkg/export"
	"otwscraper/pkg/models"
)

func testBatch(runID string, n int) export.Batch {
	b := export.Batch{
		RunID:      runID,
		Query:      models.SearchQuery{JobTitle: "QA Engineer", Location: "Lille", MaxProfiles: 10},
		Abort:      models.AbortRateLimitDetected,
		StartedAt:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 3, 14, 9, 20, 0, 0, time.UTC),
	}
	for i := 0; i < n; i++ {
		b.Records = append(b.Records, models.ProfileRecord{
			FirstName:  "Jane",
			LastName:   "Doe",
			ProfileURL: "https://www.linkedin.com/in/jane-" + string(rune('a'+i)),
			OpenToWork: true,
			ScrapedAt:  b.FinishedAt,
		})
	}
	return b
}

func TestCheckpointManager(t *testing.T) {
	// Redirect the data directory
	tempDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tempDir)

	t.Run("SaveAndLoad", func(t *testing.T) {
		mgr, err := NewManager()
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		if mgr.Dir() != filepath.Join(tempDir, "otwscraper", "checkpoints") {
			t.Errorf("Unexpected checkpoint dir %s", mgr.Dir())
		}

		path, err := mgr.Save(testBatch("run-a", 3))
		if err != nil {
			t.Fatalf("Failed to save checkpoint: %v", err)
		}
		if filepath.Base(path) != "run-a.json" {
			t.Errorf("Expected run-a.json, got %s", filepath.Base(path))
		}

		loaded, err := mgr.Load("run-a")
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded == nil {
			t.Fatal("Expected checkpoint, got nil")
		}
		if loaded.Version != CurrentVersion {
			t.Errorf("Expected version %d, got %d", CurrentVersion, loaded.Version)
		}
		if len(loaded.Batch.Records) != 3 {
			t.Errorf("Expected 3 records, got %d", len(loaded.Batch.Records))
		}
		if loaded.Batch.Abort != models.AbortRateLimitDetected {
			t.Errorf("Expected abort reason to survive, got %s", loaded.Batch.Abort)
		}
		if loaded.Batch.Query.JobTitle != "QA Engineer" {
			t.Errorf("Expected query to survive, got %+v", loaded.Batch.Query)
		}
		if !loaded.Batch.Records[0].ScrapedAt.Equal(loaded.Batch.FinishedAt) {
			t.Errorf("Expected scraped_at to survive, got %v", loaded.Batch.Records[0].ScrapedAt)
		}
	})

	t.Run("MissingSpool", func(t *testing.T) {
		mgr, err := NewManager()
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		loaded, err := mgr.Load("never-ran")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if loaded != nil {
			t.Error("Expected nil spool")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		mgr, err := NewManager()
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		if _, err := mgr.Save(testBatch("run-del", 1)); err != nil {
			t.Fatalf("Failed to save checkpoint: %v", err)
		}
		if !mgr.Exists("run-del") {
			t.Error("Expected checkpoint to exist")
		}

		if err := mgr.Delete("run-del"); err != nil {
			t.Fatalf("Failed to delete checkpoint: %v", err)
		}
		if mgr.Exists("run-del") {
			t.Error("Expected checkpoint to be deleted")
		}

		// Deleting twice is fine
		if err := mgr.Delete("run-del"); err != nil {
			t.Errorf("Expected second delete to succeed, got %v", err)
		}
	})
}

func TestSaveRequiresRunID(t *testing.T) {
	mgr, err := NewManagerAt(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if _, err := mgr.Save(export.Batch{}); err == nil {
		t.Error("Expected an error for a batch without run id")
	}
}

func TestSaveKeepsFailedSinks(t *testing.T) {
	mgr, err := NewManagerAt(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if _, err := mgr.Save(testBatch("run-f", 1), "sheets"); err != nil {
		t.Fatalf("Failed to save checkpoint: %v", err)
	}

	loaded, err := mgr.Load("run-f")
	if err != nil {
		t.Fatalf("Failed to load checkpoint: %v", err)
	}
	if len(loaded.Failed) != 1 || loaded.Failed[0] != "sheets" {
		t.Errorf("Expected failed sinks [sheets], got %v", loaded.Failed)
	}
}

func TestLatest(t *testing.T) {
	mgr, err := NewManagerAt(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	latest, err := mgr.Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest != nil {
		t.Error("Expected no spool in an empty directory")
	}

	if _, err := mgr.Save(testBatch("older", 1)); err != nil {
		t.Fatalf("Failed to save checkpoint: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := mgr.Save(testBatch("newer", 2)); err != nil {
		t.Fatalf("Failed to save checkpoint: %v", err)
	}

	latest, err = mgr.Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest == nil || latest.Batch.RunID != "newer" {
		t.Fatalf("Expected newer spool, got %+v", latest)
	}

	infos, err := mgr.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 spools, got %d", len(infos))
	}
	if infos[0].Records != 2 || infos[1].RunID != "older" {
		t.Errorf("Unexpected listing %+v", infos)
	}
	if infos[0].Query != "QA Engineer Lille" {
		t.Errorf("Expected query summary, got %q", infos[0].Query)
	}
}

func TestListSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManagerAt(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := mgr.Save(testBatch("good", 1)); err != nil {
		t.Fatalf("Failed to save checkpoint: %v", err)
	}

	infos, err := mgr.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 1 || infos[0].RunID != "good" {
		t.Errorf("Expected only the good spool, got %+v", infos)
	}
}
