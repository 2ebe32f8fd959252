// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// SHARED BEHAVIOR
// =============================================================================

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, KeyLanguage); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store error = %v, want ErrNotFound", err)
	}

	if err := store.Set(ctx, KeyLanguage, "es"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := store.Get(ctx, KeyLanguage)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "es" {
		t.Errorf("Get = %q, want %q", got, "es")
	}

	// Last write wins.
	if err := store.Set(ctx, KeyLanguage, "en"); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}
	got, _ = store.Get(ctx, KeyLanguage)
	if got != "en" {
		t.Errorf("Get after overwrite = %q, want %q", got, "en")
	}
}

func TestFileStore(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "prefs", "preferences.json"))
	exerciseStore(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "edumate.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

// =============================================================================
// FILE STORE
// =============================================================================

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	ctx := context.Background()

	if err := NewFileStore(path).Set(ctx, KeyLanguage, "es"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := NewFileStore(path).Get(ctx, KeyLanguage)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "es" {
		t.Errorf("Get = %q, want %q", got, "es")
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(path)
	ctx := context.Background()

	if _, err := store.Get(ctx, KeyLanguage); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get on corrupt file error = %v, want decode error", err)
	}

	// A write repairs the file.
	if err := store.Set(ctx, KeyLanguage, "en"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, err := store.Get(ctx, KeyLanguage); err != nil || got != "en" {
		t.Errorf("Get = %q, %v; want %q, nil", got, err, "en")
	}
}

func TestFileStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewFileStore(filepath.Join(t.TempDir(), "p.json"))
	if err := store.Set(ctx, KeyLanguage, "es"); !errors.Is(err, context.Canceled) {
		t.Errorf("Set error = %v, want context.Canceled", err)
	}
}

// =============================================================================
// SQLITE STORE
// =============================================================================

func TestSQLiteStore_Closed(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close error = %v, want nil", err)
	}

	ctx := context.Background()
	if _, err := store.Get(ctx, KeyLanguage); !errors.Is(err, ErrClosed) {
		t.Errorf("Get error = %v, want ErrClosed", err)
	}
	if err := store.Set(ctx, KeyLanguage, "en"); !errors.Is(err, ErrClosed) {
		t.Errorf("Set error = %v, want ErrClosed", err)
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edumate.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Set(ctx, KeyLanguage, "es"); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	got, err := second.Get(ctx, KeyLanguage)
	if err != nil || got != "es" {
		t.Errorf("Get = %q, %v; want %q, nil", got, err, "es")
	}
}

// =============================================================================
// MEMORY STORE + FACTORY
// =============================================================================

func TestMemoryStore_InjectedFailures(t *testing.T) {
	store := NewMemoryStore()
	boom := errors.New("disk full")
	store.SetErr = boom

	if err := store.Set(context.Background(), KeyLanguage, "es"); !errors.Is(err, boom) {
		t.Errorf("Set error = %v, want %v", err, boom)
	}
	if store.Writes() != 1 {
		t.Errorf("Writes() = %d, want 1", store.Writes())
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		path    string
		wantErr bool
	}{
		{BackendFile, filepath.Join(dir, "p.json"), false},
		{BackendSQLite, filepath.Join(dir, "p.db"), false},
		{BackendMemory, "", false},
		{"redis", filepath.Join(dir, "x"), true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			store, err := Open(tt.backend, tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			}
			if store != nil {
				store.Close()
			}
		})
	}
}

func TestStoreError_Is(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), ErrNotFound)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped ErrNotFound not matched")
	}
	if errors.Is(ErrClosed, ErrNotFound) {
		t.Error("ErrClosed matched ErrNotFound")
	}
}
