package auth

import (
	"os"
	"strings"
)

// EnvVar holds a session cookie for CI and one-off runs
const EnvVar = "OTWSCRAPER_LI_AT"

// EnvironmentStore is a read-only store backed by OTWSCRAPER_LI_AT. It
// answers for any account name.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve reads the cookie from the environment
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	cookie := strings.TrimSpace(os.Getenv(EnvVar))
	if cookie == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = DefaultAccount
	}

	return &Account{
		Name:          name,
		SessionCookie: cookie,
	}, nil
}

// List returns the environment account when the variable is set. Its
// zero LastModified lets stored accounts of the same name win.
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if the environment holds a cookie
func (e *EnvironmentStore) Exists(name string) bool {
	return strings.TrimSpace(os.Getenv(EnvVar)) != ""
}

var _ CredentialStore = (*EnvironmentStore)(nil)
