// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/jeranaias/edumate/internal/util"
)

// filePreferences is the on-disk JSON layout.
type filePreferences struct {
	Values    map[string]string `json:"values"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// FileStore keeps preferences in a single JSON file.
type FileStore struct {
	// Path is the JSON file location.
	Path string

	mu sync.Mutex
}

// NewFileStore creates a store backed by the JSON file at path. The file is
// created on the first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Get returns the value stored under key.
func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.read()
	if err != nil {
		return "", err
	}
	v, ok := prefs.Values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key and rewrites the file atomically.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.read()
	if err != nil {
		// A corrupt file is replaced rather than blocking every future write.
		prefs = &filePreferences{}
	}
	if prefs.Values == nil {
		prefs.Values = make(map[string]string)
	}
	prefs.Values[key] = value
	prefs.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := util.AtomicWriteFile(s.Path, data, 0600); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

// Close is a no-op; FileStore holds no open handles.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() (*filePreferences, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return &filePreferences{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}

	var prefs filePreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return &prefs, nil
}
