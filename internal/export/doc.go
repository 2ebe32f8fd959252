// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a study session's transcript to a file.
//
// # Formats
//
//   - Markdown (.md): front matter plus one section per message
//   - JSON (.json): the Transcript value as indented JSON
//   - HTML (.html): a standalone page with embedded CSS
//
// # Usage
//
//	t := export.NewTranscript(sess.Snapshot(), sess.Messages())
//	path, err := export.ExportToFile(t, export.NewMarkdownExporter(opts), opts)
package export
