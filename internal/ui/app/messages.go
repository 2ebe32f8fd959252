// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/edumate/internal/export"
	"github.com/jeranaias/edumate/internal/model"
	"github.com/jeranaias/edumate/internal/pipeline"
	"github.com/jeranaias/edumate/internal/session"
)

// =============================================================================
// MESSAGES
// =============================================================================

// completionMsg carries a finished pipeline job back to the update loop.
type completionMsg struct {
	completion pipeline.Completion
}

// documentOpenedMsg reports the result of opening a document path.
type documentOpenedMsg struct {
	path string
	doc  model.Document
	err  error
}

// localesReloadedMsg is sent when the string tables were reloaded from disk.
type localesReloadedMsg struct {
	err error
}

// sessionChangedMsg carries the latest session snapshot after a
// transition, whoever caused it.
type sessionChangedMsg struct {
	snap session.Snapshot
}

// exportedMsg reports a saved transcript.
type exportedMsg struct {
	path string
	err  error
}

// LocalesReloaded returns the message to send to the program after the
// locale watcher reloaded the string tables.
func LocalesReloaded(err error) tea.Msg {
	return localesReloadedMsg{err: err}
}

// =============================================================================
// COMMANDS
// =============================================================================

// runJob runs a pipeline job off the update loop.
func runJob(job pipeline.Job) tea.Cmd {
	if job == nil {
		return nil
	}
	return func() tea.Msg {
		return completionMsg{completion: job()}
	}
}

func openDocumentCmd(path string) tea.Cmd {
	return func() tea.Msg {
		doc, err := model.OpenDocument(path)
		return documentOpenedMsg{path: path, doc: doc, err: err}
	}
}

// waitForChange delivers the next snapshot published on changes.
func waitForChange(changes <-chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return sessionChangedMsg{snap: <-changes}
	}
}

func exportCmd(sess *session.Session, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := export.SaveSession(sess, "md", dir)
		return exportedMsg{path: path, err: err}
	}
}
