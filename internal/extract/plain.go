// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Plain decodes a text or markdown file. UTF-8 (with or without BOM) and
// BOM-marked UTF-16 are detected; anything else that is not valid UTF-8 is
// read as Windows-1252.
func Plain(data []byte) (string, error) {
	decoded, err := decode(data)
	if err != nil {
		return "", err
	}
	out := clean(decoded)
	if out == "" {
		return "", ErrNoText
	}
	return out, nil
}

func decode(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return string(data[3:]), nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return transformString(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), data)
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return transformString(unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder(), data)
	case utf8.Valid(data):
		return string(data), nil
	default:
		return transformString(charmap.Windows1252.NewDecoder(), data)
	}
}

func transformString(t transform.Transformer, data []byte) (string, error) {
	out, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
