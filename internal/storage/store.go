// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// KeyLanguage is the preference key holding the BCP 47 language tag.
const KeyLanguage = "language"

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store reads and writes string preferences. Writes are last-write-wins.
type Store interface {
	// Get returns the value for key, or ErrNotFound when it was never set.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// Close releases resources held by the store.
	Close() error
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned by Get for keys that have no value.
var ErrNotFound = &StoreError{Message: "preference not found"}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = &StoreError{Message: "store is closed"}

// StoreError represents a preference storage error.
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}

// Is matches errors with the same message so wrapped copies compare equal.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// FACTORY
// =============================================================================

// DataDir returns ~/.edumate, the default home of preference files.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".edumate"), nil
}

// Open creates the store for backend. An empty path selects the default
// location inside DataDir.
func Open(backend, path string) (Store, error) {
	if backend != BackendMemory && path == "" {
		dir, err := DataDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		switch backend {
		case BackendSQLite:
			path = filepath.Join(dir, "edumate.db")
		default:
			path = filepath.Join(dir, "preferences.json")
		}
	}

	switch backend {
	case BackendFile, "":
		return NewFileStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
