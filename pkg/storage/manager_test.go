package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestManagerWriteFile(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(filepath.Join(tempDir, "output"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	path, err := manager.WriteFile("profiles.csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "first_name,last_name\nJane,Doe\n")
		return err
	})
	if err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "output", "profiles.csv")
	if path != expectedPath {
		t.Errorf("Expected path %s, got %s", expectedPath, path)
	}

	content, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("Failed to read written file: %v", err)
	}
	if string(content) != "first_name,last_name\nJane,Doe\n" {
		t.Errorf("Unexpected content: %q", content)
	}

	if got := manager.Written(); len(got) != 1 || got[0] != expectedPath {
		t.Errorf("Expected written list [%s], got %v", expectedPath, got)
	}
}

func TestManagerDoesNotOverwrite(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	write := func(body string) string {
		path, err := manager.WriteFile("run.csv", func(w io.Writer) error {
			_, err := io.WriteString(w, body)
			return err
		})
		if err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		return path
	}

	first := write("one")
	second := write("two")

	if first == second {
		t.Fatal("Expected a second file instead of an overwrite")
	}
	if filepath.Base(second) != "run_1.csv" {
		t.Errorf("Expected run_1.csv, got %s", filepath.Base(second))
	}
	content, _ := os.ReadFile(first)
	if string(content) != "one" {
		t.Errorf("First file was modified: %q", content)
	}
}

func TestManagerFailedWriteLeavesNothing(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	_, err = manager.WriteFile("broken.csv", func(w io.Writer) error {
		io.WriteString(w, "partial")
		return errors.New("disk full")
	})
	if err == nil {
		t.Fatal("Expected write error")
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty directory, found %d entries", len(entries))
	}
	if len(manager.Written()) != 0 {
		t.Error("Expected no written files")
	}
}
