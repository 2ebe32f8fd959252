// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/edumate/internal/model"
)

// =============================================================================
// PLAIN TEXT
// =============================================================================

func TestPlain_Encodings(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"utf8", []byte("Photosynthesis\r\n\r\n  happens in chloroplasts  "), "Photosynthesis\nhappens in chloroplasts"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("célula")...), "célula"},
		{"utf16 le", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi"},
		{"utf16 be", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "hi"},
		{"windows-1252", []byte{'c', 'a', 'f', 0xE9}, "café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Plain(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlain_Blank(t *testing.T) {
	_, err := Plain([]byte(" \n\t\n"))
	assert.True(t, errors.Is(err, ErrNoText))
}

// =============================================================================
// DOCX
// =============================================================================

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDOCX(t *testing.T) {
	data := buildDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Chapter 1: </w:t></w:r><w:r><w:t>Cells</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>Cells are the unit of life.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	got, err := DOCX(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1: Cells\nCells are the unit of life.", got)
}

func TestDOCX_NotAZip(t *testing.T) {
	data := []byte("plain text pretending to be docx")
	_, err := DOCX(bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}

func TestDOCX_MissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, _ = zw.Create("word/styles.xml")
	require.NoError(t, zw.Close())

	_, err := DOCX(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.ErrorContains(t, err, "document.xml not found")
}

// =============================================================================
// PDF + DISPATCH
// =============================================================================

func TestPDF_Invalid(t *testing.T) {
	data := []byte("%PDF-1.4 truncated")
	_, err := PDF(bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}

func TestText_Dispatch(t *testing.T) {
	got, err := Text(model.NewDocument("notes.md", []byte("# Mitosis\n\nfour phases")))
	require.NoError(t, err)
	assert.Equal(t, "# Mitosis\nfour phases", got)

	_, err = Text(model.NewDocument("old.doc", []byte{0xD0, 0xCF, 0x11, 0xE0}))
	assert.True(t, errors.Is(err, ErrUnsupported))

	_, err = Text(model.Document{})
	assert.True(t, errors.Is(err, model.ErrEmptyDocument))
}

func TestTruncate(t *testing.T) {
	text := strings.Repeat("line of notes\n", 100)

	got, cut := Truncate(text, 140)
	assert.True(t, cut)
	assert.LessOrEqual(t, len([]rune(got)), 140)
	assert.True(t, strings.HasSuffix(got, "notes"), "cut on a line boundary")

	got, cut = Truncate("short", 140)
	assert.False(t, cut)
	assert.Equal(t, "short", got)
}
