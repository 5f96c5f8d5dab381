// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain stores the backend API token in the OS keychain/credential store.
// Tokens are kept per backend URL so switching backends does not leak credentials.
package keychain

import (
	"errors"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "querydesk"

const tokenKeyPrefix = "api_token:"

// ErrNoToken is returned when no token is stored for a backend.
var ErrNoToken = errors.New("no API token stored")

// Global keychain manager instance
var (
	globalManager *Manager
	mu            sync.Mutex
)

// Manager provides thread-safe token operations on a keyring.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// NewManager opens the OS keyring using native platform backends only.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return &Manager{ring: ring}, nil
}

// NewWithRing wraps an already opened keyring.
func NewWithRing(ring keyring.Keyring) *Manager { return &Manager{ring: ring} }

// GetManager returns the global manager, creating it on first successful call.
// A failed initialization is retried on the next call.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()
	if globalManager != nil {
		return globalManager, nil
	}
	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return m, nil
}

func allowedBackends() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend}
	default:
		return []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.PassBackend}
	}
}

// openRing opens the OS keyring. There is no plain-file fallback.
func openRing() (keyring.Keyring, error) {
	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends(),
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
		KWalletAppID:    ServiceName,
		KWalletFolder:   ServiceName,
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. Install 'pass' as a fallback: brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}
	return ring, nil
}

func tokenKey(backendURL string) string {
	return tokenKeyPrefix + strings.TrimRight(strings.TrimSpace(backendURL), "/")
}

// SaveToken stores token for backendURL, replacing any previous one.
func (m *Manager) SaveToken(backendURL, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("empty API token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.Set(keyring.Item{
		Key:   tokenKey(backendURL),
		Data:  []byte(token),
		Label: ServiceName + " API token",
	})
}

// LoadToken retrieves the token for backendURL. It returns ErrNoToken when none is stored.
func (m *Manager) LoadToken(backendURL string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, err := m.ring.Get(tokenKey(backendURL))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	if len(it.Data) == 0 {
		return "", ErrNoToken
	}
	return string(it.Data), nil
}

// ClearToken removes the token for backendURL. Removing a missing token is not an error.
func (m *Manager) ClearToken(backendURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ring.Remove(tokenKey(backendURL)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
