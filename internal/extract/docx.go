// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type wordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    struct {
		Paragraphs []struct {
			Runs []struct {
				Text string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// maxDocumentXML bounds word/document.xml to keep a hostile archive from
// exhausting memory.
const maxDocumentXML = 32 << 20

// DOCX extracts paragraph text from an Office Open XML document.
func DOCX(r io.ReaderAt, size int64) (string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX as ZIP: %w", err)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			entry = f
			break
		}
	}
	if entry == nil {
		return "", fmt.Errorf("document.xml not found in DOCX")
	}

	rc, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	var doc wordDocument
	if err := xml.NewDecoder(io.LimitReader(rc, maxDocumentXML)).Decode(&doc); err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}

	var b strings.Builder
	for _, p := range doc.Body.Paragraphs {
		for _, run := range p.Runs {
			b.WriteString(run.Text)
		}
		b.WriteString("\n")
	}

	out := clean(b.String())
	if out == "" {
		return "", ErrNoText
	}
	return out, nil
}
