// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for study sessions: the
// document under discussion, chat messages and the append-only message log.
//
// # Key Types
//
//   - Document: a named, readable byte source selected by the user
//   - Message: an immutable chat entry with role, content and sequence number
//   - Log: append-only, ordered collection of messages for one session
//   - Role: message role enumeration (user, assistant)
//
// # Usage
//
//	doc, err := model.OpenDocument("notes.pdf")
//	log := model.NewLog()
//	msg := log.Append(model.RoleUser, "What is chapter 2 about?")
//	for m := range log.All() {
//	    fmt.Println(m.Sequence, m.Content)
//	}
package model
