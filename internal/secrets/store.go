// Package secrets stores credentials in the system keyring.
package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/99designs/keyring"
)

const serviceName = "braindump"

// Well-known secret names.
const (
	APIToken      = "api_token"
	GeminiAPIKey  = "gemini_api_key"
	Neo4jPassword = "neo4j_password"
)

// Names lists the secrets the CLI knows how to use.
var Names = []string{APIToken, GeminiAPIKey, Neo4jPassword}

// Environment variables controlling the keyring backend.
const (
	EnvKeyringBackend  = "BRAINDUMP_KEYRING_BACKEND"
	EnvKeyringPassword = "BRAINDUMP_KEYRING_PASSWORD"
)

// keyringOpenTimeout bounds how long opening a D-Bus backed keyring may take.
const keyringOpenTimeout = 5 * time.Second

// ErrNotFound is returned when a secret is not stored.
var ErrNotFound = errors.New("secret not found")

var errKeyringTimeout = errors.New("timed out opening keyring")

// keyringOpenFunc is swapped in tests.
var keyringOpenFunc = keyring.Open

// Token is one stored secret.
type Token struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Store reads and writes secrets.
type Store interface {
	Keys() ([]string, error)
	SetToken(name string, tok Token) error
	GetToken(name string) (Token, error)
	DeleteToken(name string) error
}

// KeyringStore is a Store over a keyring.Keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// KeyringBackendInfo is the requested backend and where the request came from.
type KeyringBackendInfo struct {
	Value  string
	Source string
}

// ResolveKeyringBackendInfo reads the backend from the environment ("auto" by default).
func ResolveKeyringBackendInfo() KeyringBackendInfo {
	if v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvKeyringBackend))); v != "" {
		return KeyringBackendInfo{Value: v, Source: "env"}
	}
	return KeyringBackendInfo{Value: "auto", Source: "default"}
}

// OpenDefault opens the keyring for this CLI. On Linux without a D-Bus session
// it falls back to an encrypted file under the config directory.
func OpenDefault() (Store, error) {
	info := ResolveKeyringBackendInfo()
	dbusAddr := os.Getenv("DBUS_SESSION_BUS_ADDRESS")

	cfg, err := keyringConfig(info, runtime.GOOS, dbusAddr)
	if err != nil {
		return nil, err
	}

	var ring keyring.Keyring
	if shouldUseKeyringTimeout(runtime.GOOS, info, dbusAddr) {
		ring, err = openKeyringWithTimeout(cfg, keyringOpenTimeout)
	} else {
		ring, err = keyringOpenFunc(cfg)
	}
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	return &KeyringStore{ring: ring}, nil
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

func keyringConfig(info KeyringBackendInfo, goos, dbusAddr string) (keyring.Config, error) {
	cfg := keyring.Config{
		ServiceName:              serviceName,
		KeychainTrustApplication: true,
	}

	backend := info.Value
	if shouldForceFileBackend(goos, info, dbusAddr) {
		backend = "file"
	}

	switch backend {
	case "", "auto":
	case "file":
		dir, err := fileKeyringDir()
		if err != nil {
			return cfg, err
		}
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		cfg.FileDir = dir
		cfg.FilePasswordFunc = filePassword
	case "keychain":
		cfg.AllowedBackends = []keyring.BackendType{keyring.KeychainBackend}
	case "secret-service":
		cfg.AllowedBackends = []keyring.BackendType{keyring.SecretServiceBackend}
	case "wincred":
		cfg.AllowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	default:
		return cfg, fmt.Errorf("unknown keyring backend %q (use auto, file, keychain, secret-service or wincred)", backend)
	}
	return cfg, nil
}

func fileKeyringDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "braindump", "keyring"), nil
}

func filePassword(prompt string) (string, error) {
	if v := os.Getenv(EnvKeyringPassword); v != "" {
		return v, nil
	}
	return keyring.TerminalPrompt(prompt)
}

// shouldForceFileBackend is true on Linux with "auto" and no D-Bus session,
// where secret-service would hang or fail.
func shouldForceFileBackend(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr == ""
}

// shouldUseKeyringTimeout is true when "auto" may reach a D-Bus service that never answers.
func shouldUseKeyringTimeout(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr != ""
}

func openKeyringWithTimeout(cfg keyring.Config, timeout time.Duration) (keyring.Keyring, error) {
	type result struct {
		ring keyring.Keyring
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		ring, err := keyringOpenFunc(cfg)
		ch <- result{ring: ring, err: err}
	}()

	select {
	case res := <-ch:
		return res.ring, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %s; set %s=file to use the encrypted file backend", errKeyringTimeout, timeout, EnvKeyringBackend)
	}
}

// wrapKeychainError adds recovery steps for a locked macOS keychain.
func wrapKeychainError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "errSecInteractionNotAllowed") || strings.Contains(msg, "-25308") {
		return fmt.Errorf("%w\n\nThe login keychain is locked. Unlock it and retry:\n  security unlock-keychain ~/Library/Keychains/login.keychain-db\nor set %s=file", err, EnvKeyringBackend)
	}
	return err
}

// Keys returns the names of stored secrets.
func (s *KeyringStore) Keys() ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	return keys, nil
}

// SetToken stores tok under name.
func (s *KeyringStore) SetToken(name string, tok Token) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("secret name is required")
	}
	if tok.Name == "" {
		tok.Name = name
	}
	if tok.CreatedAt.IsZero() {
		tok.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode secret: %w", err)
	}
	return wrapKeychainError(s.ring.Set(keyring.Item{
		Key:   name,
		Data:  data,
		Label: serviceName + " " + name,
	}))
}

// GetToken loads a secret. Missing secrets return ErrNotFound.
func (s *KeyringStore) GetToken(name string) (Token, error) {
	item, err := s.ring.Get(name)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Token{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Token{}, wrapKeychainError(err)
	}
	var tok Token
	if err := json.Unmarshal(item.Data, &tok); err != nil {
		// Plain values written by other tools.
		return Token{Name: name, Value: strings.TrimSpace(string(item.Data))}, nil
	}
	return tok, nil
}

// DeleteToken removes a secret. Removing a missing secret returns ErrNotFound.
func (s *KeyringStore) DeleteToken(name string) error {
	if err := s.ring.Remove(name); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return wrapKeychainError(err)
	}
	return nil
}
