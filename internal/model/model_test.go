// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// LOG TESTS
// =============================================================================

func TestLog_AppendAssignsSequence(t *testing.T) {
	log := NewLog()

	first := log.Append(RoleAssistant, "ready")
	second := log.Append(RoleUser, "question")
	third := log.Append(RoleAssistant, "answer")

	assert.Equal(t, 1, first.Sequence)
	assert.Equal(t, 2, second.Sequence)
	assert.Equal(t, 3, third.Sequence)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 3, log.Len())
}

func TestLog_AllIsOrderedAndRestartable(t *testing.T) {
	log := NewLog()
	for _, c := range []string{"a", "b", "c"} {
		log.Append(RoleUser, c)
	}

	collect := func() []string {
		var out []string
		for m := range log.All() {
			out = append(out, m.Content)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c"}, collect())
	assert.Equal(t, []string{"a", "b", "c"}, collect(), "second iteration must start over")
}

func TestLog_AllSeesLaterAppends(t *testing.T) {
	log := NewLog()
	seq := log.All()
	log.Append(RoleUser, "added after All()")

	count := 0
	for range seq {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestLog_AllEarlyBreak(t *testing.T) {
	log := NewLog()
	for i := 0; i < 5; i++ {
		log.Append(RoleUser, "x")
	}

	seen := 0
	for m := range log.All() {
		seen++
		if m.Sequence == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestLog_ClearRestartsSequence(t *testing.T) {
	log := NewLog()
	log.Append(RoleUser, "one")
	log.Append(RoleAssistant, "two")

	log.Clear()
	assert.Equal(t, 0, log.Len())
	_, ok := log.Last()
	assert.False(t, ok)

	msg := log.Append(RoleUser, "again")
	assert.Equal(t, 1, msg.Sequence)
}

func TestLog_SliceIsACopy(t *testing.T) {
	log := NewLog()
	log.Append(RoleUser, "original")

	s := log.Slice()
	s[0].Content = "changed"

	last, _ := log.Last()
	assert.Equal(t, "original", last.Content)
}

func TestLog_UsesClock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	log := &Log{now: func() time.Time { return fixed }}

	msg := log.Append(RoleUser, "hi")
	assert.True(t, msg.Timestamp.Equal(fixed))
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessage_Preview(t *testing.T) {
	m := Message{Content: "Photosynthesis converts light"}
	assert.Equal(t, "Photos...", m.Preview(9))
	assert.Equal(t, m.Content, m.Preview(100))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("system").Valid())
}

// =============================================================================
// DOCUMENT TESTS
// =============================================================================

func TestNewDocument(t *testing.T) {
	doc := NewDocument("notes.txt", []byte("mitochondria"))
	require.True(t, doc.Valid())
	assert.Equal(t, ".txt", doc.Ext())

	data, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "mitochondria", string(data))
	assert.NoError(t, doc.Close())
}

func TestNewDocument_UniqueID(t *testing.T) {
	a := NewDocument("notes.txt", []byte("same"))
	b := NewDocument("notes.txt", []byte("same"))
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDocument_Valid(t *testing.T) {
	assert.False(t, Document{}.Valid())
	assert.False(t, Document{Name: "  ", Handle: NewDocument("a", nil).Handle}.Valid())
	assert.False(t, Document{Name: "a.pdf"}.Valid())
}

func TestOpenDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Chapter 1.MD")
	require.NoError(t, os.WriteFile(path, []byte("# Cells"), 0600))

	doc, err := OpenDocument(path)
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, "Chapter 1.MD", doc.Name)
	assert.Equal(t, int64(7), doc.Size)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, ".md", doc.Ext())

	data, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "# Cells", string(data))
}

func TestOpenDocument_Rejects(t *testing.T) {
	dir := t.TempDir()

	exe := filepath.Join(dir, "tool.exe")
	require.NoError(t, os.WriteFile(exe, []byte("MZ"), 0600))
	_, err := OpenDocument(exe)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	_, err = OpenDocument(empty)
	assert.True(t, errors.Is(err, ErrEmptyDocument))

	_, err = OpenDocument(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
}

func TestIsAccepted(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.DOCX", "c.doc", "d.txt", "e.md"} {
		assert.True(t, IsAccepted(name), name)
	}
	for _, name := range []string{"a.png", "noext", "archive.pdf.zip"} {
		assert.False(t, IsAccepted(name), name)
	}
}
