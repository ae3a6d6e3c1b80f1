package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

// Keeper persists credential state across process restarts. The store is the
// only caller; nothing else writes persisted credentials.
type Keeper interface {
	// Load returns the persisted state, ok=false when nothing is stored.
	Load() (State, bool, error)
	// Save overwrites the persisted state.
	Save(state State) error
}

// NopKeeper discards all state. Used when persistence is disabled and in
// tests.
type NopKeeper struct{}

func (NopKeeper) Load() (State, bool, error) { return State{}, false, nil }
func (NopKeeper) Save(State) error           { return nil }

// FileKeeper persists credentials as a JSON file with owner-only permissions.
type FileKeeper struct {
	Path string
}

// NewFileKeeper creates a file keeper at the given path, creating parent
// directories as needed.
func NewFileKeeper(path string) (*FileKeeper, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}
	return &FileKeeper{Path: path}, nil
}

func (k *FileKeeper) Load() (State, bool, error) {
	data, err := os.ReadFile(k.Path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, false, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return state, true, nil
}

func (k *FileKeeper) Save(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.WriteFile(k.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

const (
	keyringService = "tourctl"
	keyringKey     = "credentials"
)

// KeyringKeeper persists credentials in the OS keyring under a namespaced
// service key.
type KeyringKeeper struct {
	// Service overrides the keyring service name, mainly for tests.
	Service string
}

func (k *KeyringKeeper) service() string {
	if k.Service != "" {
		return k.Service
	}
	return keyringService
}

func (k *KeyringKeeper) Load() (State, bool, error) {
	blob, err := keyring.Get(k.service(), keyringKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("failed to read keyring: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return State{}, false, fmt.Errorf("failed to parse keyring credentials: %w", err)
	}
	return state, true, nil
}

func (k *KeyringKeeper) Save(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := keyring.Set(k.service(), keyringKey, string(data)); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}
