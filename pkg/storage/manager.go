package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager owns the output directory and writes export files atomically
type Manager struct {
	outputDir string
	mu        sync.Mutex
	written   []string
}

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{outputDir: outputDir}, nil
}

// UniquePath returns a path for name inside the output directory that does
// not exist yet, adding a numeric suffix when needed.
func (m *Manager) UniquePath(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(m.outputDir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(m.outputDir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}

// WriteFile streams write into a temporary file next to the target and
// renames it into place. Readers never observe a partial file.
func (m *Manager) WriteFile(name string, write func(w io.Writer) error) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := m.UniquePath(name)

	tmp, err := os.CreateTemp(m.outputDir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	err = write(tmp)
	closeErr := tmp.Close()

	if err != nil {
		os.Remove(tmpName) // Clean up temp file
		return "", fmt.Errorf("failed to write %s: %w", filepath.Base(target), err)
	}

	if closeErr != nil {
		os.Remove(tmpName) // Clean up temp file
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	// Atomic rename
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName) // Clean up temp file
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.written = append(m.written, target)
	return target, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// Written returns the files written by this manager, oldest first
func (m *Manager) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.written...)
}
