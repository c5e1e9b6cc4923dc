// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe storage for connection credentials.
// Passwords entered at runtime for connections that do not persist one are kept here,
// keyed by connection id.
//
// Two stores are supported: an in-memory ring that forgets everything when the
// process exits (the default, matching the "temporary password" behaviour users
// expect from a notebook session), and the OS keychain via 99designs/keyring
// (macOS Keychain, Windows Credential Manager, Secret Service or kernel keyctl on Linux).
package keychain

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "sqlexplorer"

// keyPrefix namespaces credential items inside the ring.
const keyPrefix = "conn:"

// Credentials is a user/password pair for one connection.
type Credentials struct {
	User     string `json:"user"`
	Password string `json:"pwd"`
}

// Manager provides thread-safe credential operations over a keyring.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// NewManager opens the store named by mode: "memory" or "os".
func NewManager(mode string) (*Manager, error) {
	switch mode {
	case "", "memory":
		return NewMemoryManager(), nil
	case "os":
		ring, err := openRing()
		if err != nil {
			return nil, err
		}
		return NewManagerWithRing(ring), nil
	}
	return nil, fmt.Errorf("unknown credential store %q", mode)
}

// NewMemoryManager returns a manager backed by a process-local ring.
func NewMemoryManager() *Manager {
	return NewManagerWithRing(keyring.NewArrayKeyring(nil))
}

// NewManagerWithRing wraps an already opened keyring.
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// openRing opens the OS keyring using native platform backends only; there is no file fallback.
func openRing() (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		// pass (password store) is the fallback when the Keychain is locked down
		allowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	case "linux":
		allowedBackends = []keyring.BackendType{keyring.SecretServiceBackend, keyring.KeyCtlBackend, keyring.PassBackend}
	default:
		return nil, errors.New("secure storage not supported on this OS, use the memory credential store")
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends,
		PassPrefix:      ServiceName,
		KeyCtlScope:     "user",
	}

	// Hint prefixes where supported to minimize namespace collisions
	if runtime.GOOS == "windows" {
		cfg.WinCredPrefix = ServiceName
	}

	return keyring.Open(cfg)
}

// SaveCredentials stores credentials for a connection, replacing any previous ones.
// This method is thread-safe.
func (m *Manager) SaveCredentials(dbid string, c Credentials) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.Set(keyring.Item{Key: keyPrefix + dbid, Data: data, Label: ServiceName + " " + dbid})
}

// LoadCredentials returns the stored credentials for a connection.
// The boolean is false when none are stored.
// This method is thread-safe.
func (m *Manager) LoadCredentials(dbid string) (Credentials, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var c Credentials
	it, err := m.ring.Get(keyPrefix + dbid)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return c, false, nil
	}
	if err != nil {
		return c, false, err
	}
	if err := json.Unmarshal(it.Data, &c); err != nil {
		return c, false, fmt.Errorf("decode credentials for %s: %w", dbid, err)
	}
	return c, true, nil
}

// ClearCredentials removes the credentials of one connection.
// This method is thread-safe.
func (m *Manager) ClearCredentials(dbid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.ring.Remove(keyPrefix + dbid)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}

// ClearAll removes every stored credential.
// This method is thread-safe.
func (m *Manager) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys, err := m.ring.Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, keyPrefix) {
			continue
		}
		if err := m.ring.Remove(k); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return err
		}
	}
	return nil
}
