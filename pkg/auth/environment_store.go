package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using OXYLABS_USERNAME and
// OXYLABS_PASSWORD. It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account. An empty username matches it;
// any other username must equal OXYLABS_USERNAME.
func (e *EnvironmentStore) Retrieve(username string) (*Credentials, error) {
	envUser := os.Getenv("OXYLABS_USERNAME")
	envPass := os.Getenv("OXYLABS_PASSWORD")

	if envUser == "" || envPass == "" {
		return nil, ErrCredentialsNotFound
	}
	if username != "" && username != envUser {
		return nil, ErrCredentialsNotFound
	}

	return &Credentials{
		Username: envUser,
		Password: envPass,
		// zero time so stored copies win in Manager.List
		LastModified: time.Time{},
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
