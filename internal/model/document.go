// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// AcceptedExtensions lists the file types a user may pick as study material.
var AcceptedExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".md"}

var (
	// ErrUnsupportedFormat is returned when a file's extension is not accepted.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument is returned for a document without content.
	ErrEmptyDocument = errors.New("document is empty")
)

// =============================================================================
// DOCUMENT TYPE
// =============================================================================

// Handle is the readable byte source behind a Document.
type Handle interface {
	io.ReaderAt
}

// Document is the study material selected by the user. The session owns it
// from selection until reset.
type Document struct {
	// ID is unique per selection. Two selections of the same file get
	// different IDs.
	ID string

	Name   string
	Handle Handle
	Size   int64

	// Path is set when the document was opened from disk.
	Path string

	closer io.Closer
}

// NewDocument wraps in-memory content as a Document.
func NewDocument(name string, data []byte) Document {
	return Document{
		ID:     newDocumentID(),
		Name:   name,
		Handle: bytes.NewReader(data),
		Size:   int64(len(data)),
	}
}

// OpenDocument opens the file at path as a Document. The extension must be
// one of AcceptedExtensions. The caller must Close the document.
func OpenDocument(path string) (Document, error) {
	if !IsAccepted(path) {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open document: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return Document{}, fmt.Errorf("stat document: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return Document{}, fmt.Errorf("open document: %s is a directory", path)
	}
	if info.Size() == 0 {
		f.Close()
		return Document{}, ErrEmptyDocument
	}

	return Document{
		ID:     newDocumentID(),
		Name:   filepath.Base(path),
		Handle: f,
		Size:   info.Size(),
		Path:   path,
		closer: f,
	}, nil
}

// Valid reports whether the document can start a session.
func (d Document) Valid() bool {
	return strings.TrimSpace(d.Name) != "" && d.Handle != nil
}

// Ext returns the lower-cased file extension of the document name.
func (d Document) Ext() string {
	return strings.ToLower(filepath.Ext(d.Name))
}

// Bytes reads the whole document.
func (d Document) Bytes() ([]byte, error) {
	if d.Handle == nil {
		return nil, ErrEmptyDocument
	}
	return io.ReadAll(io.NewSectionReader(d.Handle, 0, d.Size))
}

// Close releases the underlying file, if any.
func (d Document) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

func newDocumentID() string {
	return "doc_" + uuid.NewString()
}

// IsAccepted reports whether name has one of the accepted extensions.
func IsAccepted(name string) bool {
	return slices.Contains(AcceptedExtensions, strings.ToLower(filepath.Ext(name)))
}
