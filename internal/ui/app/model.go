// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/edumate/internal/i18n"
	"github.com/jeranaias/edumate/internal/model"
	"github.com/jeranaias/edumate/internal/session"
	"github.com/jeranaias/edumate/internal/ui/styles"
	"github.com/jeranaias/edumate/internal/util"
)

// Layout constants.
const (
	headerHeight = 2
	footerHeight = 2
	inputHeight  = 3
	typingHeight = 1

	minWidth  = 40
	minHeight = 12

	maxQuestionChars = 4000
)

// Options configures the TUI.
type Options struct {
	// Markdown renders assistant messages with glamour.
	Markdown bool

	// Theme defaults to styles.NewTheme().
	Theme *styles.Theme

	// ExportDir receives ctrl+e transcripts.
	ExportDir string

	Logger *zap.Logger
}

// Model is the Bubble Tea model for EduMate.
type Model struct {
	sess   *session.Session
	theme  *styles.Theme
	keys   KeyMap
	logger *zap.Logger

	width  int
	height int

	pathInput textinput.Model
	input     textarea.Model
	viewport  viewport.Model
	spinner   spinner.Model

	exportDir string

	// changes receives the latest snapshot from the session's observer.
	changes     chan session.Snapshot
	unsubscribe func()

	markdown      bool
	renderer      *glamour.TermRenderer
	rendererWidth int

	// notice is a one-line status shown above the help line.
	notice    string
	noticeErr bool
}

// New creates the TUI model for sess.
func New(sess *session.Session, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 1024
	ti.Focus()

	ta := textarea.New()
	ta.Prompt = ""
	ta.ShowLineNumbers = false
	ta.CharLimit = maxQuestionChars
	ta.SetHeight(inputHeight)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline = DefaultKeyMap().Newline

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	m := Model{
		sess:      sess,
		theme:     theme,
		keys:      DefaultKeyMap(),
		logger:    logger.With(zap.String("component", "tui")),
		width:     80,
		height:    24,
		pathInput: ti,
		input:     ta,
		viewport:  viewport.New(80, 20),
		spinner:   sp,
		exportDir: opts.ExportDir,
		markdown:  opts.Markdown,
	}
	m.changes, m.unsubscribe = subscribe(sess)
	m.refreshLabels()
	m.layout()
	return m
}

// subscribe forwards session snapshots into a one-slot channel. A newer
// snapshot replaces one that was not read yet, and the observer never
// blocks the goroutine that changed the session.
func subscribe(sess *session.Session) (chan session.Snapshot, func()) {
	changes := make(chan session.Snapshot, 1)
	unsubscribe := sess.Subscribe(func(snap session.Snapshot) {
		for {
			select {
			case changes <- snap:
				return
			default:
			}
			select {
			case <-changes:
			default:
			}
		}
	})
	return changes, unsubscribe
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForChange(m.changes))
}

// Close stops listening to the session.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Session returns the session the model renders.
func (m Model) Session() *session.Session {
	return m.sess
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, minWidth)
		m.height = max(msg.Height, minHeight)
		m.layout()
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case documentOpenedMsg:
		return m.handleDocumentOpened(msg)

	case completionMsg:
		if m.sess.Apply(msg.completion) {
			m.refreshViewport()
			if m.sess.Mode() == session.Conversing {
				return m, m.input.Focus()
			}
		}
		return m, nil

	case sessionChangedMsg:
		m.refreshViewport()
		cmds := []tea.Cmd{waitForChange(m.changes)}
		if msg.snap.Busy {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case exportedMsg:
		if msg.err != nil {
			m.logger.Warn("export failed", zap.Error(msg.err))
			m.setNotice(m.sess.Text(i18n.KeyExportFailed, i18n.Vars{"reason": msg.err.Error()}), true)
		} else {
			m.setNotice(m.sess.Text(i18n.KeyExportSaved, i18n.Vars{"path": msg.path}), false)
		}
		return m, nil

	case localesReloadedMsg:
		if msg.err != nil {
			m.setNotice(msg.err.Error(), true)
		} else {
			m.refreshLabels()
			m.refreshViewport()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.sess.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Language):
		return m.cycleLanguage()

	case key.Matches(msg, m.keys.Export):
		if m.sess.MessageCount() == 0 {
			return m, nil
		}
		return m, exportCmd(m.sess, m.exportDir)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	switch m.sess.Mode() {
	case session.AwaitingDocument:
		if key.Matches(msg, m.keys.Submit) {
			return m.chooseDocument()
		}

	case session.ProcessingDocument:
		switch {
		case key.Matches(msg, m.keys.NewDocument):
			return m.newDocument()
		case key.Matches(msg, m.keys.Retry):
			job, ok := m.sess.RetryAnalysis()
			if !ok {
				return m, nil
			}
			m.clearNotice()
			return m, tea.Batch(runJob(job), m.spinner.Tick)
		}
		return m, nil

	case session.Conversing:
		switch {
		case key.Matches(msg, m.keys.NewDocument):
			return m.newDocument()
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		}
	}

	return m.updateFocused(msg)
}

// updateFocused forwards msg to the input of the current screen.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.sess.Mode() {
	case session.AwaitingDocument:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case session.Conversing:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) chooseDocument() (tea.Model, tea.Cmd) {
	path := util.CleanPath(m.pathInput.Value())
	if path == "" {
		return m, nil
	}
	if !model.IsAccepted(path) {
		m.setNotice(m.sess.Text(i18n.KeyUnsupportedFormat, i18n.Vars{
			"ext":   strings.ToLower(filepath.Ext(path)),
			"types": acceptedTypes(),
		}), true)
		return m, nil
	}
	return m, openDocumentCmd(path)
}

func (m Model) handleDocumentOpened(msg documentOpenedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("open document failed", zap.String("path", msg.path), zap.Error(msg.err))
		m.setNotice(m.sess.Text(i18n.KeyOpenFailed, i18n.Vars{
			"file":   filepath.Base(msg.path),
			"reason": m.openFailureReason(msg.err),
		}), true)
		return m, nil
	}

	job, ok := m.sess.SelectDocument(msg.doc)
	if !ok {
		if err := msg.doc.Close(); err != nil {
			m.logger.Warn("close rejected document", zap.Error(err))
		}
		return m, nil
	}

	m.clearNotice()
	m.pathInput.Reset()
	m.pathInput.Blur()
	m.refreshViewport()
	return m, tea.Batch(runJob(job), m.spinner.Tick)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	job, ok := m.sess.SubmitText(m.input.Value())
	if !ok {
		return m, nil
	}
	m.input.Reset()
	m.clearNotice()
	m.refreshViewport()
	return m, tea.Batch(runJob(job), m.spinner.Tick)
}

func (m Model) newDocument() (tea.Model, tea.Cmd) {
	if !m.sess.Reset() {
		return m, nil
	}
	m.input.Reset()
	m.input.Blur()
	m.clearNotice()
	m.refreshViewport()
	return m, m.pathInput.Focus()
}

func (m Model) cycleLanguage() (tea.Model, tea.Cmd) {
	if err := m.sess.ChangeLanguage(context.Background(), m.sess.NextLanguage()); err != nil {
		m.setNotice(err.Error(), true)
		return m, nil
	}
	m.refreshLabels()
	m.refreshViewport()
	m.setNotice(m.sess.Text(i18n.KeyLanguageChanged, i18n.Vars{
		"language": m.sess.Text(i18n.KeyLanguageName, nil),
	}), false)
	return m, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) setNotice(text string, isErr bool) {
	m.notice, m.noticeErr = text, isErr
}

func (m *Model) clearNotice() {
	m.notice, m.noticeErr = "", false
}

// refreshLabels re-renders the placeholders in the active language.
func (m *Model) refreshLabels() {
	m.pathInput.Placeholder = m.sess.Text(i18n.KeyPathPlaceholder, i18n.Vars{"types": acceptedTypes()})
	m.input.Placeholder = m.sess.Text(i18n.KeyInputPlaceholder, nil)
}

func (m *Model) layout() {
	m.pathInput.Width = min(m.width-16, 60)
	m.input.SetWidth(m.width - 4)
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-headerHeight-footerHeight-inputHeight-1-typingHeight, 3)
}

// refreshViewport rebuilds the conversation and scrolls to the end.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

// openFailureReason keeps the message short: the OS error without the
// path, which the template already shows.
func (m *Model) openFailureReason(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	return msg
}

// markdownRenderer returns a glamour renderer wrapped to width, or nil when
// markdown is off or the renderer cannot be built.
func (m *Model) markdownRenderer(width int) *glamour.TermRenderer {
	if !m.markdown {
		return nil
	}
	if m.renderer != nil && m.rendererWidth == width {
		return m.renderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", zap.Error(err))
		m.markdown = false
		return nil
	}
	m.renderer, m.rendererWidth = r, width
	return r
}

func acceptedTypes() string {
	return strings.Join(model.AcceptedExtensions, " ")
}
