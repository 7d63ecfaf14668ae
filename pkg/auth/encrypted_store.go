package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	vaultVersion = 1
	vaultKDF     = "pbkdf2-sha256"

	saltSize   = 32
	keySize    = 32
	iterations = 100000

	passphraseEnv  = "IGAVAIL_PASSPHRASE"
	passphraseFile = ".passphrase"
)

// ErrWrongPassphrase means the vault exists but cannot be opened with the current passphrase
var ErrWrongPassphrase = errors.New("credential vault cannot be decrypted with this passphrase")

// EncryptedFileStore keeps crawler accounts in a single AES-GCM sealed vault file.
// The key is derived with PBKDF2 from IGAVAIL_PASSPHRASE, or from a passphrase
// generated once and kept next to the vault.
type EncryptedFileStore struct {
	path       string
	passphrase string
	mu         sync.Mutex
}

// envelope is the on-disk form. Salt and Sealed are base64 via encoding/json.
type envelope struct {
	Version    int       `json:"version"`
	KDF        string    `json:"kdf"`
	Iterations int       `json:"iterations"`
	Salt       []byte    `json:"salt"`
	Sealed     []byte    `json:"sealed"`
	Modified   time.Time `json:"modified"`
}

// vault is the decrypted payload, accounts sorted by username
type vault struct {
	Accounts []Credentials `json:"accounts"`
}

func (v *vault) find(username string) int {
	for i := range v.Accounts {
		if v.Accounts[i].Username == username {
			return i
		}
	}
	return -1
}

// NewEncryptedFileStore opens (or prepares) the vault at path
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	passphrase, err := resolvePassphrase(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

// Store adds or replaces an account
func (e *EncryptedFileStore) Store(creds *Credentials) error {
	if creds == nil || creds.Username == "" {
		return ErrInvalidCredentials
	}

	return e.update(func(v *vault) error {
		if i := v.find(creds.Username); i >= 0 {
			v.Accounts[i] = *creds
			return nil
		}
		v.Accounts = append(v.Accounts, *creds)
		sort.Slice(v.Accounts, func(i, j int) bool {
			return v.Accounts[i].Username < v.Accounts[j].Username
		})
		return nil
	})
}

// Retrieve returns the account for username
func (e *EncryptedFileStore) Retrieve(username string) (*Credentials, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.Lock()
	v, err := e.load()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	i := v.find(username)
	if i < 0 {
		return nil, ErrCredentialsNotFound
	}
	creds := v.Accounts[i]
	return &creds, nil
}

// List returns every account in the vault
func (e *EncryptedFileStore) List() ([]*Credentials, error) {
	e.mu.Lock()
	v, err := e.load()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	accounts := make([]*Credentials, len(v.Accounts))
	for i := range v.Accounts {
		creds := v.Accounts[i]
		accounts[i] = &creds
	}
	return accounts, nil
}

// Delete removes an account. The vault file goes away with its last account.
func (e *EncryptedFileStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	return e.update(func(v *vault) error {
		i := v.find(username)
		if i < 0 {
			return ErrCredentialsNotFound
		}
		v.Accounts = append(v.Accounts[:i], v.Accounts[i+1:]...)
		return nil
	})
}

// Exists reports whether username is in the vault
func (e *EncryptedFileStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}

// update runs fn on the current vault and persists the result
func (e *EncryptedFileStore) update(fn func(v *vault) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.load()
	if err != nil {
		return err
	}
	if err := fn(v); err != nil {
		return err
	}

	if len(v.Accounts) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove vault: %w", err)
		}
		return nil
	}
	return e.save(v)
}

// load returns an empty vault when the file does not exist yet
func (e *EncryptedFileStore) load() (*vault, error) {
	content, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return &vault{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(content, &env); err != nil {
		return nil, fmt.Errorf("failed to parse vault: %w", err)
	}
	if env.Version != vaultVersion || env.KDF != vaultKDF {
		return nil, fmt.Errorf("unsupported vault format %d/%s", env.Version, env.KDF)
	}

	plaintext, err := open(env.Sealed, e.key(env.Salt, env.Iterations))
	if err != nil {
		return nil, err
	}

	var v vault
	if err := json.Unmarshal(plaintext, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vault contents: %w", err)
	}
	return &v, nil
}

// save seals v under a fresh salt and replaces the file atomically
func (e *EncryptedFileStore) save(v *vault) error {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal vault: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	sealed, err := seal(plaintext, e.key(salt, iterations))
	if err != nil {
		return err
	}

	content, err := json.MarshalIndent(envelope{
		Version:    vaultVersion,
		KDF:        vaultKDF,
		Iterations: iterations,
		Salt:       salt,
		Sealed:     sealed,
		Modified:   time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vault: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".vault-*")
	if err != nil {
		return fmt.Errorf("failed to write vault: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write vault: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write vault: %w", err)
	}
	return os.Rename(tmp.Name(), e.path)
}

func (e *EncryptedFileStore) key(salt []byte, rounds int) []byte {
	if rounds <= 0 {
		rounds = iterations
	}
	return pbkdf2.Key([]byte(e.passphrase), salt, rounds, keySize, sha256.New)
}

// resolvePassphrase prefers the environment, then a passphrase file in dir,
// generating one on first use.
func resolvePassphrase(dir string) (string, error) {
	if pass := os.Getenv(passphraseEnv); pass != "" {
		return pass, nil
	}

	path := filepath.Join(dir, passphraseFile)
	if content, err := os.ReadFile(path); err == nil {
		if pass := strings.TrimSpace(string(content)); pass != "" {
			return pass, nil
		}
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := base64.RawURLEncoding.EncodeToString(b)

	if err := os.WriteFile(path, []byte(pass), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}

// seal returns nonce || ciphertext
func seal(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func open(sealed, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("vault payload too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
