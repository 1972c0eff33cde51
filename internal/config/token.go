package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/99designs/keyring"
	"golang.org/x/oauth2"
)

const (
	KeyringService = "unsplash-cli"
	TokenKey       = "oauth_token"
)

// ErrNoToken is returned by Load when no token has been stored yet.
var ErrNoToken = errors.New("no token found, please authenticate first")

// TokenStore holds the single bearer token in the OS keyring so it survives
// restarts and never touches plain preference files. Reads happen on every
// API call while writes only happen on login/logout, so all access goes
// through one mutex.
type TokenStore struct {
	mu   sync.Mutex
	ring keyring.Keyring
}

// OpenTokenStore opens the platform keyring, falling back to an encrypted
// file under the config directory.
func OpenTokenStore() (*TokenStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: KeyringService,

		// Keyring backends to try in order
		AllowedBackends: []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.FileBackend,
		},

		// FileBackend config for fallback
		FileDir:          configDir(),
		FilePasswordFunc: keyring.FixedStringPrompt("Please enter a password to encrypt your tokens"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return NewTokenStore(ring), nil
}

// NewTokenStore wraps an already-open keyring.
func NewTokenStore(ring keyring.Keyring) *TokenStore {
	return &TokenStore{ring: ring}
}

func (s *TokenStore) Save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.ring.Set(keyring.Item{
		Key:   TokenKey,
		Data:  data,
		Label: "Unsplash OAuth Token",
	})
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (s *TokenStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	item, err := s.ring.Get(TokenKey)
	s.mu.Unlock()
	if err != nil {
		if err == keyring.ErrKeyNotFound {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("failed to retrieve token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(item.Data, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.ring.Remove(TokenKey)
	if err != nil && err != keyring.ErrKeyNotFound {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// BearerToken implements api.TokenProvider.
func (s *TokenStore) BearerToken() (string, bool) {
	token, err := s.Load()
	if err != nil || token.AccessToken == "" {
		return "", false
	}
	return token.AccessToken, true
}
