// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the full-screen Bubble Tea front end of EduMate.
//
// The Model renders a session.Session and forwards key presses to it. It
// holds no conversation state of its own: the upload screen, the processing
// screen and the chat screen are all derived from the session's mode, log
// and busy flag.
//
// Assistant requests run as tea.Cmds; their completions come back as
// messages and are applied on the update loop, which keeps every session
// transition on one goroutine. The model also subscribes to the session,
// so transitions made elsewhere reach the screen as messages.
//
// # Key Bindings
//
//   - Enter: choose the typed path, or send the question
//   - Alt+Enter / Ctrl+J: newline in the question
//   - Ctrl+N: new document
//   - Ctrl+R: retry a failed analysis
//   - Ctrl+L: next language
//   - PgUp/PgDn: scroll the conversation
//   - Ctrl+C: quit
package app
