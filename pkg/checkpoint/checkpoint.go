package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"otwscraper/pkg/export"
	"otwscraper/pkg/logger"
)

// CurrentVersion is written into every spool file
const CurrentVersion = 1

// Spool is a finished record set waiting for delivery
type Spool struct {
	Version int          `json:"version"`
	Batch   export.Batch `json:"batch"`
	// Failed lists the sinks of the last delivery attempt that did not succeed
	Failed  []string  `json:"failed,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// Info summarizes a spool without its records
type Info struct {
	RunID   string
	Path    string
	Records int
	Query   string
	SavedAt time.Time
}

// Manager handles spool files in one directory
type Manager struct {
	dir    string
	logger logger.Logger
}

// NewManager creates a manager under the platform data directory
func NewManager() (*Manager, error) {
	dataDir, err := DataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewManagerAt(filepath.Join(dataDir, "checkpoints"))
}

// NewManagerAt creates a manager storing spools in dir
func NewManagerAt(dir string) (*Manager, error) {
	// Create checkpoints directory if it doesn't exist
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &Manager{
		dir:    dir,
		logger: logger.GetLogger(),
	}, nil
}

// Dir is the directory spools are written to
func (m *Manager) Dir() string { return m.dir }

func (m *Manager) path(runID string) string {
	return filepath.Join(m.dir, runID+".json")
}

// Save writes batch atomically and returns the spool path
func (m *Manager) Save(batch export.Batch, failed ...string) (string, error) {
	if batch.RunID == "" {
		return "", errors.New("batch has no run id")
	}

	spool := Spool{
		Version: CurrentVersion,
		Batch:   batch,
		Failed:  failed,
		SavedAt: time.Now(),
	}
	target := m.path(batch.RunID)

	// Create temporary file
	file, err := os.CreateTemp(m.dir, "."+batch.RunID+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}
	tempPath := file.Name()

	// Write checkpoint data
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&spool); err != nil {
		file.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	// Ensure data is written to disk
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	// Atomically replace the old checkpoint file
	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"run_id":  batch.RunID,
		"records": len(batch.Records),
		"path":    target,
	})

	return target, nil
}

// Load reads the spool of runID; a missing spool is nil without error
func (m *Manager) Load(runID string) (*Spool, error) {
	return m.loadPath(m.path(runID))
}

func (m *Manager) loadPath(path string) (*Spool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No checkpoint exists
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var spool Spool
	if err := json.NewDecoder(file).Decode(&spool); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint %s: %w", filepath.Base(path), err)
	}
	if spool.Version > CurrentVersion {
		return nil, fmt.Errorf("checkpoint %s has unsupported version %d", filepath.Base(path), spool.Version)
	}

	return &spool, nil
}

// List returns every spool, newest first
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	var infos []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		path := filepath.Join(m.dir, name)
		spool, err := m.loadPath(path)
		if err != nil {
			m.logger.WithError(err).Warn("Skipping unreadable checkpoint")
			continue
		}
		if spool == nil {
			continue
		}
		infos = append(infos, Info{
			RunID:   spool.Batch.RunID,
			Path:    path,
			Records: len(spool.Batch.Records),
			Query:   spool.Batch.Query.Keywords(),
			SavedAt: spool.SavedAt,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].SavedAt.After(infos[j].SavedAt)
	})
	return infos, nil
}

// Latest returns the newest spool, or nil when there is none
func (m *Manager) Latest() (*Spool, error) {
	infos, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, nil
	}
	return m.loadPath(infos[0].Path)
}

// Delete removes the spool of runID
func (m *Manager) Delete(runID string) error {
	if err := os.Remove(m.path(runID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint deleted", map[string]interface{}{"run_id": runID})
	return nil
}

// Exists checks if a spool exists for runID
func (m *Manager) Exists(runID string) bool {
	_, err := os.Stat(m.path(runID))
	return err == nil
}

// DataDirectory returns the appropriate data directory for the current OS
func DataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		// Use XDG_DATA_HOME if set, otherwise ~/.local/share
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "otwscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "otwscraper")
		}
	case "darwin":
		// macOS: ~/Library/Application Support
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "otwscraper")
	case "windows":
		// Windows: %APPDATA%
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "otwscraper")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	// Create the data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
