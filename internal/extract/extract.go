// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract pulls plain text out of study documents so a language
// model can read them.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/edumate/internal/model"
)

var (
	// ErrNoText is returned when a document yields no readable text.
	ErrNoText = errors.New("no text could be extracted")

	// ErrUnsupported is returned for formats without a text extractor.
	ErrUnsupported = errors.New("text extraction not supported for this format")
)

// Text extracts the plain text of doc based on its extension.
func Text(doc model.Document) (string, error) {
	if !doc.Valid() {
		return "", model.ErrEmptyDocument
	}

	var (
		text string
		err  error
	)
	switch doc.Ext() {
	case ".pdf":
		text, err = PDF(doc.Handle, doc.Size)
	case ".docx":
		text, err = DOCX(doc.Handle, doc.Size)
	case ".txt", ".md":
		var data []byte
		data, err = doc.Bytes()
		if err == nil {
			text, err = Plain(data)
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, doc.Ext())
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", doc.Name, err)
	}
	return text, nil
}

// Truncate cuts text to at most maxRunes runes on a line boundary when one
// is close, and reports whether anything was dropped.
func Truncate(text string, maxRunes int) (string, bool) {
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text, false
	}
	cut := string(runes[:maxRunes])
	if i := strings.LastIndexByte(cut, '\n'); i > len(cut)*3/4 {
		cut = cut[:i]
	}
	return cut, true
}

// clean normalizes line endings and drops blank lines and NUL bytes.
func clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
