// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/jeranaias/edumate/internal/export"
	"github.com/jeranaias/edumate/internal/i18n"
	"github.com/jeranaias/edumate/internal/model"
	"github.com/jeranaias/edumate/internal/pipeline"
	"github.com/jeranaias/edumate/internal/session"
	"github.com/jeranaias/edumate/internal/util"
)

// =============================================================================
// LINE INPUT
// =============================================================================

// LineReader reads one line of input after printing prompt. It returns
// io.EOF or liner.ErrPromptAborted when the user leaves.
type LineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linerReader is a LineReader with editing and history.
type linerReader struct {
	state       *liner.State
	historyFile string
}

// NewLineReader creates a line editor whose history lives in historyFile.
// An empty historyFile disables history persistence.
func NewLineReader(historyFile string) LineReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	r := &linerReader{state: state, historyFile: historyFile}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = state.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		r.state.AppendHistory(line)
	}
	return line, nil
}

// Close saves the history and restores the terminal.
func (r *linerReader) Close() error {
	if r.historyFile != "" {
		var buf bytes.Buffer
		if _, err := r.state.WriteHistory(&buf); err == nil {
			_ = util.AtomicWriteFile(r.historyFile, buf.Bytes(), 0600)
		}
	}
	return r.state.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPLOptions configures a REPL.
type REPLOptions struct {
	In  LineReader
	Out io.Writer

	// Render formats assistant messages, e.g. as markdown. Nil prints them
	// as they are.
	Render func(string) string

	// ExportDir receives /export transcripts. Empty means the working
	// directory.
	ExportDir string

	Logger *zap.Logger
}

// REPL is the line-mode front end: one prompt per turn, answers printed
// as they complete.
type REPL struct {
	sess      *session.Session
	in        LineReader
	out       io.Writer
	render    func(string) string
	exportDir string
	logger    *zap.Logger

	// shown counts log messages already handled.
	shown int
}

// NewREPL creates a line-mode front end for sess.
func NewREPL(sess *session.Session, opts REPLOptions) *REPL {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	render := opts.Render
	if render == nil {
		render = func(s string) string { return s }
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &REPL{
		sess:      sess,
		in:        opts.In,
		out:       out,
		render:    render,
		exportDir: opts.ExportDir,
		logger:    logger.With(zap.String("component", "repl")),
	}
}

// Run reads input until the user quits, input ends or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	r.println(TitleStyle.Render(r.text(i18n.KeyReplWelcome, i18n.Vars{
		"app":     r.text(i18n.KeyAppName, nil),
		"tagline": r.text(i18n.KeyTagline, nil),
	})))

	for ctx.Err() == nil {
		prompt := r.text(i18n.KeyReplPrompt, nil)
		if r.sess.Mode() == session.AwaitingDocument {
			prompt = r.text(i18n.KeyReplDocumentPrompt, nil)
		}

		line, err := r.in.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				r.println("")
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				return nil
			}
			continue
		}

		switch r.sess.Mode() {
		case session.AwaitingDocument:
			r.open(line)
		case session.ProcessingDocument:
			r.println(DimStyle.Render(r.text(i18n.KeyReplHelp, nil)))
		case session.Conversing:
			if job, ok := r.sess.SubmitText(line); ok {
				r.run(job, i18n.KeyTyping)
			}
		}
	}
	return nil
}

// command handles a slash command and reports whether to quit.
func (r *REPL) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return true

	case "help", "?":
		r.println(r.text(i18n.KeyReplHelp, nil))

	case "new":
		if r.sess.Reset() {
			r.shown = 0
		}

	case "retry":
		if job, ok := r.sess.RetryAnalysis(); ok {
			r.run(job, i18n.KeyProcessing)
		}

	case "lang":
		tag := r.sess.NextLanguage()
		if arg != "" {
			parsed, err := language.Parse(arg)
			if err != nil {
				r.println(ErrorStyle.Render(err.Error()))
				return false
			}
			tag = parsed
		}
		if err := r.sess.ChangeLanguage(ctx, tag); err != nil {
			r.println(ErrorStyle.Render(err.Error()))
			return false
		}
		r.println(SuccessStyle.Render(r.text(i18n.KeyLanguageChanged, i18n.Vars{
			"language": r.text(i18n.KeyLanguageName, nil),
		})))

	case "export":
		path, err := export.SaveSession(r.sess, arg, r.exportDir)
		if err != nil {
			r.logger.Warn("export failed", zap.Error(err))
			r.println(ErrorStyle.Render(r.text(i18n.KeyExportFailed, i18n.Vars{"reason": err.Error()})))
			return false
		}
		r.println(SuccessStyle.Render(r.text(i18n.KeyExportSaved, i18n.Vars{"path": path})))

	default:
		r.println(WarningStyle.Render(r.text(i18n.KeyReplUnknownCommand, i18n.Vars{"command": "/" + name})))
	}
	return false
}

func (r *REPL) open(input string) {
	path := util.CleanPath(input)
	if !model.IsAccepted(path) {
		r.println(ErrorStyle.Render(r.text(i18n.KeyUnsupportedFormat, i18n.Vars{
			"ext":   strings.ToLower(filepath.Ext(path)),
			"types": strings.Join(model.AcceptedExtensions, " "),
		})))
		return
	}

	doc, err := model.OpenDocument(path)
	if err != nil {
		r.logger.Warn("open document failed", zap.String("path", path), zap.Error(err))
		r.println(ErrorStyle.Render(r.text(i18n.KeyOpenFailed, i18n.Vars{
			"file":   filepath.Base(path),
			"reason": err.Error(),
		})))
		return
	}

	job, ok := r.sess.SelectDocument(doc)
	if !ok {
		_ = doc.Close()
		return
	}
	r.run(job, i18n.KeyProcessing)
}

// run waits for job, applies it and prints what it added.
func (r *REPL) run(job pipeline.Job, waitingKey string) {
	r.println(DimStyle.Render(r.text(waitingKey, nil)))
	r.sess.Apply(job())
	r.printNew()
}

// printNew prints the assistant messages added since the last call. The
// user's own messages are already on screen.
func (r *REPL) printNew() {
	i := 0
	for msg := range r.sess.Messages() {
		if i >= r.shown && msg.IsAssistant() {
			r.println(AssistantStyle.Render(r.text(i18n.KeyRoleAssistant, nil)+":") + " " + r.render(msg.Content))
		}
		i++
	}
	r.shown = i
}

func (r *REPL) text(key string, vars i18n.Vars) string {
	return r.sess.Text(key, vars)
}

func (r *REPL) println(s string) {
	fmt.Fprintln(r.out, s)
}
