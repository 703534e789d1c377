package auth

import (
	"errors"
	"fmt"
	"os"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DefaultAccount is the name used when none is given
const DefaultAccount = "default"

// Account is a named LinkedIn session
type Account struct {
	Name string `json:"name"`
	// SessionCookie is the value of the li_at cookie
	SessionCookie string    `json:"li_at"`
	LastModified  time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials for a given account
	Store(account *Account) error

	// Retrieve gets credentials for a specific account name
	Retrieve(name string) (*Account, error)

	// List merges the accounts of every store. When two stores hold the same
// name the most recently modified copy wins.
func (m *Manager) List() ([]*Account, error) {
	byName := make(map[string]*Account)
	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if seen, ok := byName[account.Name]; !ok || account.LastModified.After(seen.LastModified) {
				byName[account.Name] = account
			}
		}
	}

	names := slices.Sorted(maps.Keys(byName))
	result := make([]*Account, 0, len(names))
	for _, name := range names {
		result = append(result, byName[name])
	}
	return result, nil
}

// Delete removes name from every store holding it. Stores that never had it
// are not an error as long as one store did.
func (m *Manager) Delete(name string) error {
	var deleted bool
	var failures []error
	for _, store := range m.stores {
		err := store.Delete(name)
		if err == nil {
			deleted = true
			continue
		}
		if !errors.Is(err, ErrCredentialsNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			failures = append(failures, err)
		}
	}

	switch {
	case deleted:
		return nil
	case len(failures) > 0:
		return fmt.Errorf("failed to delete credentials: %w", errors.Join(failures...))
	default:
		return fmt.Errorf("%w for account %q", ErrCredentialsNotFound, name)
	}
}

// DeleteAll removes every listed account and reports the ones that failed
func (m *Manager) DeleteAll() error {
	accounts, err := m.List()
	if err != nil {
		return err
	}
	var failures []error
	for _, account := range accounts {
		if err := m.Delete(account.Name); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

// ConfigDir is otwscraper's directory under the user config dir
// (XDG_CONFIG_HOME, ~/Library/Application Support or %AppData%), created on
// first use
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "otwscraper")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// SanitizeAccount creates a copy of the account with the cookie masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Name:          account.Name,
		SessionCookie: maskString(account.SessionCookie),
		LastModified:  account.LastModified,
	}
}

// maskString keeps four characters at each end
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
