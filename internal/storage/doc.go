// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists EduMate user preferences.
//
// The only value stored today is the preferred interface language, kept
// under the "language" key. Two durable backends exist: a JSON file written
// atomically and a SQLite database. MemoryStore backs tests.
//
// # Key Types
//
//   - Store: key/value preference storage interface
//   - FileStore: JSON file at ~/.edumate/preferences.json
//   - SQLiteStore: preferences table in ~/.edumate/edumate.db
//   - MemoryStore: in-process map with optional injected failures
//
// # Usage
//
//	store, err := storage.Open(storage.BackendFile, "")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	lang, err := store.Get(ctx, storage.KeyLanguage)
//	if errors.Is(err, storage.ErrNotFound) {
//	    lang = "en"
//	}
package storage
