// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the document-chat lifecycle.
//
// A Session moves between three modes: waiting for a document, processing
// one, and conversing about it. It is the only caller of the response
// pipeline and the only writer of the message log.
//
// # Key Types
//
//   - Session: the state machine
//   - Mode: AwaitingDocument, ProcessingDocument or Conversing
//   - Snapshot: a copy of the observable state, passed to observers
//
// # Jobs and Completions
//
// Transitions that need the assistant return a pipeline.Job. The adapter
// runs the job off its control thread and hands the resulting Completion
// back through Apply. Completions carry the generation they were started
// under; Reset bumps the generation, so a completion that arrives after a
// reset is dropped.
//
//	job, ok := s.SelectDocument(doc)
//	if ok {
//	    go func() { completions <- job() }()
//	}
//	...
//	s.Apply(<-completions)
package session
