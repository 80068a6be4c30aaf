package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/ghnav/cli/internal/logger"
	"github.com/ghnav/cli/internal/schema"
)

const (
	keyringService = "ghnav"
	keyringKey     = "auth_state"
)

// Keyring is the durable Store, backed by the OS credential manager with an
// encrypted file fallback for CGO-free builds and headless machines.
type Keyring struct {
	open func() (keyring.Keyring, error)
}

// NewKeyring returns the default durable store.
func NewKeyring() *Keyring {
	return &Keyring{
		open: func() (keyring.Keyring, error) {
			return keyring.Open(keyringConfig())
		},
	}
}

// keyringConfig builds a keyring configuration that works with
// CGO_ENABLED=0. The file backend is encrypted with a deterministic
// machine-bound password so it never prompts.
func keyringConfig() keyring.Config {
	configDir := filepath.Join(os.Getenv("HOME"), ".config", "ghnav")
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		configDir = filepath.Join(xdgConfig, "ghnav")
	}

	password := sha256.Sum256([]byte(machineID() + os.Getenv("HOME")))

	return keyring.Config{
		ServiceName: keyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,      // macOS (requires CGO)
			keyring.SecretServiceBackend, // Linux (requires CGO)
			keyring.WinCredBackend,       // Windows
			keyring.FileBackend,          // fallback for all platforms
		},
		KeychainTrustApplication: true,
		FileDir:                  configDir,
		FilePasswordFunc: func(string) (string, error) {
			return hex.EncodeToString(password[:]), nil
		},
	}
}

// machineID returns a stable identifier for the current machine.
func machineID() string {
	paths := []string{
		"/etc/machine-id",
		"/var/lib/dbus/machine-id",
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			return string(data)
		}
	}
	if hostname, err := os.Hostname(); err == nil {
		return hostname
	}
	return "default-machine-id"
}

// Get loads the credential record. A missing key yields (nil, nil). A
// record that fails shape validation is proactively removed and reported as
// absent — a malformed credential must never reach a caller.
func (k *Keyring) Get(ctx context.Context) (*schema.AuthState, error) {
	ring, err := k.open()
	if err != nil {
		return nil, err
	}

	item, err := ring.Get(keyringKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var state schema.AuthState
	if err := json.Unmarshal(item.Data, &state); err != nil {
		logger.Warn("Stored credential record is not valid JSON, clearing")
		_ = k.Remove(ctx)
		return nil, nil
	}

	if res := schema.SafeValidate(state); !res.Valid {
		logger.Warn("Stored credential record failed validation, clearing: %v", res.Err)
		_ = k.Remove(ctx)
		return nil, nil
	}

	return &state, nil
}

// Set persists the credential record.
func (k *Keyring) Set(_ context.Context, state *schema.AuthState) error {
	ring, err := k.open()
	if err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return ring.Set(keyring.Item{
		Key:  keyringKey,
		Data: data,
	})
}

// Remove deletes the credential record. Removing an absent record is not an
// error.
func (k *Keyring) Remove(_ context.Context) error {
	ring, err := k.open()
	if err != nil {
		return err
	}

	if err := ring.Remove(keyringKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
