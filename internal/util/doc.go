// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the EduMate packages.
//
// # Key Functions
//
// Text:
//   - NormalizeInput: trims and NFC-normalizes submitted text
//   - TruncateWidth: display-width aware truncation with an ellipsis
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - CleanPath: unquotes and expands paths typed into a terminal
//
// # Usage
//
//	name := util.TruncateWidth(doc.Name, 32)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
