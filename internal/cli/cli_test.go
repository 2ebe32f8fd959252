// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/jeranaias/edumate/internal/config"
	"github.com/jeranaias/edumate/internal/i18n"
	"github.com/jeranaias/edumate/internal/pipeline"
	"github.com/jeranaias/edumate/internal/session"
	"github.com/jeranaias/edumate/internal/storage"
)

// =============================================================================
// ARGS
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    Args
		wantErr bool
	}{
		{name: "empty", raw: nil, want: Args{}},
		{
			name: "chat with flags",
			raw:  []string{"--simulate", "chat", "--lang", "es"},
			want: Args{Command: CmdChat, Lang: "es", Simulate: true},
		},
		{
			name: "equals form",
			raw:  []string{"--model=llama3.2:3b", "--verbose=false"},
			want: Args{Model: "llama3.2:3b"},
		},
		{
			name: "subcommand and positional",
			raw:  []string{"config", "get", "pipeline.timeout_secs"},
			want: Args{Command: CmdConfig, Subcommand: "get", Positional: []string{"get", "pipeline.timeout_secs"}},
		},
		{
			name: "serve with addr",
			raw:  []string{"serve", "--addr", ":9000"},
			want: Args{Command: CmdServe, Addr: ":9000"},
		},
		{name: "help flag", raw: []string{"-h"}, want: Args{Command: CmdHelp}},
		{name: "version flag", raw: []string{"--version"}, want: Args{Command: CmdVersion}},
		{name: "missing value", raw: []string{"--config"}, wantErr: true},
		{name: "unknown flag", raw: []string{"--frobnicate"}, wantErr: true},
		{name: "unknown command", raw: []string{"upload"}, wantErr: true},
		{name: "bad bool", raw: []string{"--simulate=maybe"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArgs(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// REPL
// =============================================================================

// scriptedReader feeds fixed lines and records the prompts it was shown.
type scriptedReader struct {
	lines   []string
	prompts []string
}

func (r *scriptedReader) Prompt(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) Close() error { return nil }

func newTestSession(t *testing.T, answerErr error) (*session.Session, *i18n.Provider) {
	t.Helper()
	cat, err := i18n.NewCatalog()
	require.NoError(t, err)
	text := i18n.NewProvider(cat, storage.NewMemoryStore(), i18n.ProviderOptions{Strict: true})

	responder := pipeline.Func{
		AnswerFunc: func(ctx context.Context, req pipeline.AnswerRequest) (pipeline.Result, error) {
			return pipeline.Result{Text: "answer to " + req.Question}, answerErr
		},
	}
	return session.New(pipeline.New(responder, pipeline.Options{}), text, session.Options{}), text
}

func writeNotes(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Photosynthesis turns light into sugar."), 0600))
	return path
}

func runREPL(t *testing.T, sess *session.Session, lines ...string) (string, *scriptedReader) {
	t.Helper()
	in := &scriptedReader{lines: lines}
	var out bytes.Buffer
	repl := NewREPL(sess, REPLOptions{In: in, Out: &out})
	require.NoError(t, repl.Run(context.Background()))
	return out.String(), in
}

func TestREPL_Conversation(t *testing.T) {
	sess, _ := newTestSession(t, nil)
	path := writeNotes(t)

	out, in := runREPL(t, sess, "  '"+path+"'  ", "what is photosynthesis?")

	assert.Contains(t, out, "EduMate")
	assert.Contains(t, out, `analyzed your document "notes.txt"`)
	assert.Contains(t, out, "answer to what is photosynthesis?")
	assert.Equal(t, session.Conversing, sess.Mode())
	assert.Equal(t, 3, sess.MessageCount())

	require.Len(t, in.prompts, 3)
	assert.Equal(t, "Document path: ", in.prompts[0])
	assert.Equal(t, "you> ", in.prompts[1])
}

func TestREPL_UnsupportedFormat(t *testing.T) {
	sess, _ := newTestSession(t, nil)

	out, _ := runREPL(t, sess, "slides.pptx")

	assert.Contains(t, out, `Unsupported file type ".pptx"`)
	assert.Equal(t, session.AwaitingDocument, sess.Mode())
}

func TestREPL_OpenFailure(t *testing.T) {
	sess, _ := newTestSession(t, nil)

	out, _ := runREPL(t, sess, filepath.Join(t.TempDir(), "missing.pdf"))

	assert.Contains(t, out, `Could not open "missing.pdf"`)
	assert.Equal(t, session.AwaitingDocument, sess.Mode())
}

func TestREPL_AnswerFailure(t *testing.T) {
	sess, _ := newTestSession(t, errors.New("boom"))

	out, _ := runREPL(t, sess, writeNotes(t), "hello?")

	assert.Contains(t, out, "Sorry, I couldn't answer that: something went wrong")
	assert.Equal(t, session.Conversing, sess.Mode())
}

func TestREPL_Commands(t *testing.T) {
	sess, _ := newTestSession(t, nil)

	out, in := runREPL(t, sess, writeNotes(t), "/bogus", "/new", "/lang es", "/quit", "never read")

	assert.Contains(t, out, `Unknown command "/bogus"`)
	assert.Contains(t, out, "Idioma cambiado a Español")
	assert.Equal(t, session.AwaitingDocument, sess.Mode())
	assert.Equal(t, 0, sess.MessageCount())
	assert.Equal(t, language.Spanish, sess.Language())
	assert.Len(t, in.prompts, 5, "input after /quit is not read")
	assert.Equal(t, "Ruta del documento: ", in.prompts[4])
}

func TestREPL_Export(t *testing.T) {
	sess, _ := newTestSession(t, nil)
	dir := t.TempDir()

	in := &scriptedReader{lines: []string{"/export", writeNotes(t), "/export json", "/export pdf"}}
	var out bytes.Buffer
	require.NoError(t, NewREPL(sess, REPLOptions{In: in, Out: &out, ExportDir: dir}).Run(context.Background()))

	assert.Contains(t, out.String(), "Could not save the transcript: transcript has no messages")
	assert.Contains(t, out.String(), "Transcript saved to "+dir)
	assert.Contains(t, out.String(), `unsupported export format "pdf"`)

	files, err := filepath.Glob(filepath.Join(dir, "edumate_notes_*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestREPL_LangRejectsUnknown(t *testing.T) {
	sess, _ := newTestSession(t, nil)

	out, _ := runREPL(t, sess, "/lang de")

	assert.Contains(t, out, "unsupported language")
	assert.Equal(t, language.English, sess.Language())
}

// =============================================================================
// SUBCOMMANDS
// =============================================================================

func TestRunLang(t *testing.T) {
	_, text := newTestSession(t, nil)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, RunLang(ctx, text, Args{Command: CmdLang}, &out))
	assert.Contains(t, out.String(), "English")
	assert.Contains(t, out.String(), "Español")

	out.Reset()
	require.NoError(t, RunLang(ctx, text, Args{Command: CmdLang, Subcommand: "es-MX"}, &out))
	assert.Contains(t, out.String(), "Idioma cambiado a Español")
	assert.Equal(t, language.Spanish, text.Preference(ctx))

	assert.Error(t, RunLang(ctx, text, Args{Command: CmdLang, Subcommand: "!!"}, &out))
	assert.ErrorIs(t, RunLang(ctx, text, Args{Command: CmdLang, Subcommand: "de"}, &out), i18n.ErrUnsupportedLanguage)
}

func TestRunLocales(t *testing.T) {
	cat, err := i18n.NewCatalog()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, RunLocales(cat, Args{Subcommand: "check"}, &out))
	assert.Contains(t, out.String(), "OK: 2 languages")

	out.Reset()
	require.NoError(t, RunLocales(cat, Args{Subcommand: "list"}, &out))
	assert.Contains(t, out.String(), "es")

	partial, err := i18n.NewCatalogFromTables(map[string]i18n.Table{
		"en": {i18n.KeyLanguageName: "English"},
	})
	require.NoError(t, err)
	out.Reset()
	err = RunLocales(partial, Args{}, &out)
	assert.ErrorIs(t, err, ErrMissingTranslations)
	assert.Contains(t, out.String(), i18n.KeyTagline)

	assert.Error(t, RunLocales(cat, Args{Subcommand: "fix"}, &out))
}

func TestRunConfig(t *testing.T) {
	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "config.toml")
	args := Args{Command: CmdConfig, ConfigPath: path}

	var out bytes.Buffer
	args.Subcommand = "path"
	require.NoError(t, RunConfig(cfg, args, &out))
	assert.Equal(t, path, strings.TrimSpace(out.String()))

	args.Subcommand = "init"
	require.NoError(t, RunConfig(cfg, args, &out))
	assert.FileExists(t, path)
	assert.Error(t, RunConfig(cfg, args, &out), "init refuses to overwrite")

	out.Reset()
	args.Subcommand, args.Positional = "get", []string{"get", "pipeline.timeout_secs"}
	require.NoError(t, RunConfig(cfg, args, &out))
	assert.Equal(t, "60", strings.TrimSpace(out.String()))

	args.Positional = []string{"get"}
	assert.Error(t, RunConfig(cfg, args, &out))

	out.Reset()
	require.NoError(t, RunConfig(cfg, Args{Command: CmdConfig}, &out))
	assert.Contains(t, out.String(), `"timeout_secs": 60`)
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	RunVersion(&out)
	assert.Contains(t, out.String(), "edumate "+Version)
}
