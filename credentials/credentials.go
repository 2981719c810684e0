// Package credentials stores and resolves the OpenAI API key used by the
// transcribe and summarize stages.
//
// Lookup order:
//  1. OPENAI_API_KEY environment variable
//  2. System keyring (macOS Keychain, Windows Credential Manager,
//     Linux Secret Service)
//  3. ~/.minutes/credentials.yaml, encrypted with a key derived from
//     MINUTES_CREDENTIALS_PASSPHRASE, for hosts without a keyring
package credentials

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// Credential storage constants.
const (
	EnvAPIKey     = "OPENAI_API_KEY"
	EnvPassphrase = "MINUTES_CREDENTIALS_PASSPHRASE"

	DefaultCredentialsFile = "credentials.yaml"

	keyringService = "minutes"
	keyringUser    = "openai-api-key"
)

// Where a resolved key came from.
const (
	SourceEnv     = "environment"
	SourceKeyring = "keyring"
	SourceFile    = "file"
)

// Common errors.
var (
	// ErrNoCredentials is returned when no API key is stored.
	ErrNoCredentials = errors.New("no credentials stored")
	// ErrKeyringUnavailable indicates the system keyring is not available.
	ErrKeyringUnavailable = errors.New("system keyring unavailable")
	// ErrInvalidCredentials is returned when stored credentials are malformed.
	ErrInvalidCredentials = errors.New("invalid credentials format")
)

// Backend persists a single secret.
type Backend interface {
	Get() (string, error)
	Set(secret string) error
	Delete() error

	// Name is the Source* constant reported for keys found here.
	Name() string
	// Description returns a human-readable description of the storage mechanism.
	Description() string
}

// KeyringBackend stores the key in the system keyring.
type KeyringBackend struct{}

// Get returns the stored key or ErrNoCredentials.
func (KeyringBackend) Get() (string, error) {
	secret, err := keyring.Get(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoCredentials
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

// Set stores secret, replacing any existing key.
func (KeyringBackend) Set(secret string) error {
	if err := keyring.Set(keyringService, keyringUser, secret); err != nil {
		return fmt.Errorf("%w: storing key: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// Delete removes the key. Deleting a missing key returns ErrNoCredentials.
func (KeyringBackend) Delete() error {
	err := keyring.Delete(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNoCredentials
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// Name implements Backend.
func (KeyringBackend) Name() string { return SourceKeyring }

// Description returns a description of this backend.
func (KeyringBackend) Description() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "System Keyring (Secret Service)"
	}
}

// fileCredentials is the on-disk layout of credentials.yaml.
type fileCredentials struct {
	Salt        string    `yaml:"salt"`
	APIKey      string    `yaml:"api_key"`
	LastUpdated time.Time `yaml:"last_updated"`
}

// FileBackend stores the key encrypted with AES-GCM under an Argon2id key
// derived from a passphrase.
type FileBackend struct {
	path       string
	passphrase string
}

// NewFileBackend returns a backend writing to path.
func NewFileBackend(path, passphrase string) *FileBackend {
	return &FileBackend{path: path, passphrase: passphrase}
}

// Get decrypts the stored key.
func (b *FileBackend) Get() (string, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoCredentials
	}
	if err != nil {
		return "", fmt.Errorf("reading credentials file: %w", err)
	}

	var fc fileCredentials
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if fc.APIKey == "" {
		return "", ErrNoCredentials
	}
	salt, err := base64.StdEncoding.DecodeString(fc.Salt)
	if err != nil {
		return "", fmt.Errorf("%w: salt: %v", ErrInvalidCredentials, err)
	}

	key, err := deriveKey(b.passphrase, salt)
	if err != nil {
		return "", err
	}
	return decrypt(key, fc.APIKey)
}

// Set encrypts secret with a fresh salt and writes the file with 0600 permissions.
func (b *FileBackend) Set(secret string) error {
	salt, err := generateSalt()
	if err != nil {
		return err
	}
	key, err := deriveKey(b.passphrase, salt)
	if err != nil {
		return err
	}
	enc, err := encrypt(key, secret)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(&fileCredentials{
		Salt:        base64.StdEncoding.EncodeToString(salt),
		APIKey:      enc,
		LastUpdated: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	if err := os.WriteFile(b.path, data, 0600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}
	return nil
}

// Delete removes the credentials file.
func (b *FileBackend) Delete() error {
	err := os.Remove(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNoCredentials
	}
	if err != nil {
		return fmt.Errorf("removing credentials file: %w", err)
	}
	return nil
}

// Name implements Backend.
func (b *FileBackend) Name() string { return SourceFile }

// Description returns a description of this backend.
func (b *FileBackend) Description() string {
	return fmt.Sprintf("Encrypted file (%s, Argon2id)", b.path)
}

// Store resolves and persists the API key across the environment and backends.
type Store struct {
	backends []Backend
	getenv   func(string) string
}

// NewStore returns a store backed by the system keyring and, when
// MINUTES_CREDENTIALS_PASSPHRASE is set, the encrypted file in dir.
func NewStore(dir string) *Store {
	backends := []Backend{KeyringBackend{}}
	if pass := os.Getenv(EnvPassphrase); pass != "" {
		backends = append(backends, NewFileBackend(filepath.Join(dir, DefaultCredentialsFile), pass))
	}
	return NewStoreWithBackends(os.Getenv, backends...)
}

// NewStoreWithBackends creates a store with explicit backends.
// This is primarily used for testing.
func NewStoreWithBackends(getenv func(string) string, backends ...Backend) *Store {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	return &Store{backends: backends, getenv: getenv}
}

// APIKey returns the active key and where it came from.
func (s *Store) APIKey() (key, source string, err error) {
	if v := strings.TrimSpace(s.getenv(EnvAPIKey)); v != "" {
		return v, SourceEnv, nil
	}

	var unavailable error
	for _, b := range s.backends {
		secret, err := b.Get()
		switch {
		case err == nil && secret != "":
			return secret, b.Name(), nil
		case err == nil, errors.Is(err, ErrNoCredentials):
			continue
		case errors.Is(err, ErrKeyringUnavailable):
			unavailable = err
			continue
		default:
			return "", "", err
		}
	}
	if unavailable != nil {
		return "", "", fmt.Errorf("%w (set %s or %s): %v", ErrNoCredentials, EnvAPIKey, EnvPassphrase, unavailable)
	}
	return "", "", ErrNoCredentials
}

// Save stores key in the first backend that accepts it and returns that
// backend's description.
func (s *Store) Save(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: empty API key", ErrInvalidCredentials)
	}

	var lastErr error = ErrKeyringUnavailable
	for _, b := range s.backends {
		err := b.Set(key)
		if err == nil {
			return b.Description(), nil
		}
		if !errors.Is(err, ErrKeyringUnavailable) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("no usable credential backend (set %s for file storage): %w", EnvPassphrase, lastErr)
}

// Delete removes the key from every backend. It returns ErrNoCredentials if
// nothing was stored.
func (s *Store) Delete() error {
	deleted := false
	for _, b := range s.backends {
		err := b.Delete()
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrNoCredentials), errors.Is(err, ErrKeyringUnavailable):
		default:
			return err
		}
	}
	if !deleted {
		return ErrNoCredentials
	}
	return nil
}

// MaskAPIKey returns a masked key showing the prefix and last four characters.
func MaskAPIKey(apiKey string) string {
	if len(apiKey) <= 12 {
		return strings.Repeat("*", len(apiKey))
	}
	return apiKey[:4] + strings.Repeat("*", 8) + "..." + apiKey[len(apiKey)-4:]
}
