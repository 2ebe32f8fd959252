// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline runs document analysis and question answering off the
// UI thread.
//
// A Pipeline allows one outstanding request at a time. Analyze and Answer
// mark it busy and hand back a Job; the caller runs the Job on another
// goroutine (a Bubble Tea command, for instance) and feeds the resulting
// Completion back to the session, which calls Settle. Cancel abandons the
// outstanding request and clears the busy flag at once.
//
// Every Job is bounded by the configured timeout and, when a limiter is set,
// waits for a rate-limit token first. Completions carry the generation they
// were started under so callers can drop results that arrive after a reset.
//
// # Responders
//
//   - Simulated: fixed delays and canned, localized replies
//   - Ollama: a local model reading the extracted document text
//   - Func: adapter for tests
package pipeline
