package auth

import "sync"

// MockStore is an in-memory CredentialStore. The *Error fields, when set,
// are returned by the matching method.
type MockStore struct {
	mu       sync.Mutex
	accounts map[string]Credentials

	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{accounts: make(map[string]Credentials)}
}

// NewMockManager returns a Manager backed only by a fresh MockStore
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore()
	return NewManagerWithStores(store), store
}

func (m *MockStore) Store(creds *Credentials) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if creds == nil || creds.Username == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[creds.Username] = *creds
	return nil
}

func (m *MockStore) Retrieve(username string) (*Credentials, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	creds, ok := m.accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &creds, nil
}

func (m *MockStore) List() ([]*Credentials, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	accounts := make([]*Credentials, 0, len(m.accounts))
	for _, creds := range m.accounts {
		c := creds
		accounts = append(accounts, &c)
	}
	return accounts, nil
}

func (m *MockStore) Delete(username string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, username)
	return nil
}

func (m *MockStore) Exists(username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.accounts[username]
	return ok
}

// Count returns the number of stored accounts
func (m *MockStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

// Clear removes every account
func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = make(map[string]Credentials)
}
