// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jeranaias/edumate/internal/i18n"
	"github.com/jeranaias/edumate/internal/model"
	"github.com/jeranaias/edumate/internal/session"
	"github.com/jeranaias/edumate/internal/util"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is an exportable copy of a session's conversation.
type Transcript struct {
	SessionID  string          `json:"session_id"`
	Document   string          `json:"document"`
	Language   string          `json:"language"`
	ExportedAt time.Time       `json:"exported_at"`
	Messages   []model.Message `json:"messages"`
}

// NewTranscript copies the conversation described by snap and msgs.
func NewTranscript(snap session.Snapshot, msgs iter.Seq[model.Message]) *Transcript {
	return &Transcript{
		SessionID:  snap.ID,
		Document:   snap.DocumentName,
		Language:   snap.Language.String(),
		ExportedAt: time.Now(),
		Messages:   slices.Collect(msgs),
	}
}

func (t *Transcript) validate() error {
	if t == nil || len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// =============================================================================
// EXPORTER INTERFACE
// =============================================================================

// Exporter renders a transcript in one file format.
type Exporter interface {
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the extension including the dot.
	FileExtension() string

	MimeType() string
}

// Labels are the localized strings an exporter writes around messages.
type Labels struct {
	Title     string
	User      string
	Assistant string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written. Empty means the working
	// directory.
	OutputDir string

	Labels Labels

	// IncludeTimestamps adds the time to each message heading.
	IncludeTimestamps bool
}

// DefaultOptions returns English labels and timestamps on.
func DefaultOptions() *Options {
	return &Options{
		OutputDir: ".",
		Labels: Labels{
			Title:     "Study session",
			User:      "You",
			Assistant: "EduMate",
		},
		IncludeTimestamps: true,
	}
}

func (o *Options) roleLabel(role model.Role) string {
	switch role {
	case model.RoleUser:
		return o.Labels.User
	case model.RoleAssistant:
		return o.Labels.Assistant
	default:
		return string(role)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Formats lists the names accepted by ForFormat.
var Formats = []string{"md", "json", "html"}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (use %s)", format, strings.Join(Formats, ", "))
	}
}

// ExportToFile renders t with exporter and writes it to a new file in
// opts.OutputDir. It returns the file path.
func ExportToFile(t *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, Filename(t, exporter))
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// Filename names the file for t, e.g. edumate_notes_20250314_092653.md.
func Filename(t *Transcript, exporter Exporter) string {
	name := strings.TrimSuffix(t.Document, filepath.Ext(t.Document))
	return fmt.Sprintf("edumate_%s_%s%s",
		sanitizeFilename(name),
		t.ExportedAt.Format("20060102_150405"),
		exporter.FileExtension(),
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

var filenameReplacer = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
	"\"", "-", "<", "-", ">", "-", "|", "-",
	" ", "_", "\t", "_", "\n", "_", "\r", "_",
)

// sanitizeFilename makes s safe to use in a file name on Windows and Unix.
func sanitizeFilename(s string) string {
	if runes := []rune(s); len(runes) > 50 {
		s = string(runes[:50])
	}
	s = filenameReplacer.Replace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return '-'
		}
		return r
	}, s)

	if s == "" {
		return "session"
	}
	return s
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}

// SessionOptions returns options that label messages in the session's
// active language.
func SessionOptions(sess *session.Session, dir string) *Options {
	return &Options{
		OutputDir: dir,
		Labels: Labels{
			Title:     sess.Text(i18n.KeyTranscriptTitle, nil),
			User:      sess.Text(i18n.KeyRoleUser, nil),
			Assistant: sess.Text(i18n.KeyRoleAssistant, nil),
		},
		IncludeTimestamps: true,
	}
}

// SaveSession writes the transcript of sess to dir in format.
func SaveSession(sess *session.Session, format, dir string) (string, error) {
	opts := SessionOptions(sess, dir)
	exporter, err := ForFormat(format, opts)
	if err != nil {
		return "", err
	}
	return ExportToFile(NewTranscript(sess.Snapshot(), sess.Messages()), exporter, opts)
}
