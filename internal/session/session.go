// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"iter"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/jeranaias/edumate/internal/i18n"
	"github.com/jeranaias/edumate/internal/model"
	"github.com/jeranaias/edumate/internal/pipeline"
	"github.com/jeranaias/edumate/internal/util"
)

// =============================================================================
// MODES
// =============================================================================

// Mode is the high-level state of a session.
type Mode int

const (
	AwaitingDocument Mode = iota
	ProcessingDocument
	Conversing
)

func (m Mode) String() string {
	switch m {
	case AwaitingDocument:
		return "awaiting_document"
	case ProcessingDocument:
		return "processing_document"
	case Conversing:
		return "conversing"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of the observable session state.
type Snapshot struct {
	ID           string
	Mode         Mode
	DocumentName string
	HasDocument  bool
	Messages     int
	Busy         bool
	Language     language.Tag
	Generation   uint64
	CanRetry     bool
}

// Observer is notified with a Snapshot after every applied transition.
type Observer func(Snapshot)

// =============================================================================
// SESSION
// =============================================================================

// Options configures a Session.
type Options struct {
	Logger *zap.Logger
}

// Session is the document-chat state machine.
type Session struct {
	pipe *pipeline.Pipeline
	text *i18n.Provider
	log  *model.Log

	mu             sync.Mutex
	id             string
	mode           Mode
	doc            model.Document
	hasDoc         bool
	generation     uint64
	analysisFailed bool
	logger         *zap.Logger

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

// New creates a session in AwaitingDocument.
func New(pipe *pipeline.Pipeline, text *i18n.Provider, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		pipe:      pipe,
		text:      text,
		log:       model.NewLog(),
		id:        id,
		mode:      AwaitingDocument,
		logger:    logger.With(zap.String("component", "session"), zap.String("session_id", id)),
		observers: make(map[int]Observer),
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// SelectDocument starts analyzing doc. It is ignored unless the session is
// awaiting a document, doc is valid and no request is outstanding.
func (s *Session) SelectDocument(doc model.Document) (pipeline.Job, bool) {
	s.mu.Lock()
	if s.mode != AwaitingDocument || !doc.Valid() {
		s.mu.Unlock()
		return nil, false
	}

	job, err := s.pipe.Analyze(s.generation, pipeline.AnalyzeRequest{
		Document: doc,
		Language: s.text.Language(),
	})
	if err != nil {
		s.mu.Unlock()
		return nil, false
	}

	s.doc, s.hasDoc = doc, true
	s.mode = ProcessingDocument
	s.analysisFailed = false
	s.logger.Info("document selected", zap.String("document", doc.Name), zap.Int64("size", doc.Size))
	s.mu.Unlock()

	s.notify()
	return job, true
}

// RetryAnalysis re-runs the analysis after it failed. It is ignored in any
// other situation.
func (s *Session) RetryAnalysis() (pipeline.Job, bool) {
	s.mu.Lock()
	if s.mode != ProcessingDocument || !s.analysisFailed {
		s.mu.Unlock()
		return nil, false
	}

	job, err := s.pipe.Analyze(s.generation, pipeline.AnalyzeRequest{
		Document: s.doc,
		Language: s.text.Language(),
	})
	if err != nil {
		s.mu.Unlock()
		return nil, false
	}
	s.analysisFailed = false
	s.logger.Info("retrying analysis", zap.String("document", s.doc.Name))
	s.mu.Unlock()

	s.notify()
	return job, true
}

// SubmitText appends the user's question and asks for an answer. Blank
// text, text sent while busy and text sent outside a conversation are
// ignored.
func (s *Session) SubmitText(text string) (pipeline.Job, bool) {
	text = util.NormalizeInput(text)

	s.mu.Lock()
	if s.mode != Conversing || text == "" {
		s.mu.Unlock()
		return nil, false
	}

	history := s.log.Slice()
	job, err := s.pipe.Answer(s.generation, pipeline.AnswerRequest{
		Question: text,
		Document: s.doc,
		History:  history,
		Language: s.text.Language(),
	})
	if err != nil {
		s.mu.Unlock()
		return nil, false
	}

	msg := s.log.Append(model.RoleUser, text)
	s.logger.Debug("question submitted", zap.Int("sequence", msg.Sequence))
	s.mu.Unlock()

	s.notify()
	return job, true
}

// Reset returns to AwaitingDocument, discarding the document, the messages
// and any outstanding request. It reports false if there was nothing to
// reset.
func (s *Session) Reset() bool {
	s.mu.Lock()
	if s.mode == AwaitingDocument {
		s.mu.Unlock()
		return false
	}

	s.pipe.Cancel()
	s.generation++
	s.log.Clear()
	if err := s.doc.Close(); err != nil {
		s.logger.Warn("closing document", zap.Error(err))
	}
	s.doc, s.hasDoc = model.Document{}, false
	s.mode = AwaitingDocument
	s.analysisFailed = false
	s.logger.Info("session reset", zap.Uint64("generation", s.generation))
	s.mu.Unlock()

	s.notify()
	return true
}

// ChangeLanguage switches and persists the active language. Messages
// already in the log keep their text.
func (s *Session) ChangeLanguage(ctx context.Context, tag language.Tag) error {
	if err := s.text.SetPreference(ctx, tag); err != nil {
		return err
	}
	s.logger.Info("language changed", zap.Stringer("language", s.text.Language()))
	s.notify()
	return nil
}

// Apply applies a job's completion. Completions from before the last reset
// and completions that do not fit the current mode are dropped; Apply
// reports whether the completion was used.
func (s *Session) Apply(c pipeline.Completion) bool {
	s.mu.Lock()
	if c.Generation != s.generation {
		s.logger.Debug("dropping stale completion",
			zap.Stringer("kind", c.Kind),
			zap.Uint64("completion_generation", c.Generation),
			zap.Uint64("generation", s.generation))
		s.mu.Unlock()
		return false
	}

	switch {
	case c.Kind == pipeline.KindAnalysis && s.mode == ProcessingDocument:
		s.applyAnalysis(c)
	case c.Kind == pipeline.KindAnswer && s.mode == Conversing:
		s.applyAnswer(c)
	default:
		s.logger.Warn("completion does not match mode",
			zap.Stringer("kind", c.Kind), zap.Stringer("mode", s.mode))
		s.mu.Unlock()
		return false
	}
	s.pipe.Settle()
	s.mu.Unlock()

	s.notify()
	return true
}

func (s *Session) applyAnalysis(c pipeline.Completion) {
	if c.Failed() {
		s.analysisFailed = true
		s.log.Append(model.RoleAssistant, s.text.Text(i18n.KeyAnalysisFailed, i18n.Vars{
			"file":   s.doc.Name,
			"reason": s.reason(c.Err),
		}))
		return
	}

	vars := i18n.Vars{"file": s.doc.Name}
	key := i18n.KeyInitialAnalysis
	if c.Text != "" {
		key = i18n.KeyInitialAnalysisSummary
		vars["summary"] = c.Text
	}
	s.log.Append(model.RoleAssistant, s.text.Text(key, vars))
	s.mode = Conversing
	s.logger.Info("document analyzed", zap.Duration("elapsed", c.Elapsed))
}

func (s *Session) applyAnswer(c pipeline.Completion) {
	if c.Failed() {
		s.log.Append(model.RoleAssistant, s.text.Text(i18n.KeyAnswerFailed, i18n.Vars{
			"reason": s.reason(c.Err),
		}))
		return
	}
	s.log.Append(model.RoleAssistant, c.Text)
}

func (s *Session) reason(err error) string {
	switch pipeline.Classify(err) {
	case pipeline.ReasonTimeout:
		return s.text.Text(i18n.KeyReasonTimeout, nil)
	case pipeline.ReasonUnavailable:
		return s.text.Text(i18n.KeyReasonUnavailable, nil)
	default:
		return s.text.Text(i18n.KeyReasonGeneric, nil)
	}
}

// =============================================================================
// READS
// =============================================================================

// ID returns the session's unique ID.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Document returns the active document, if any.
func (s *Session) Document() (model.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc, s.hasDoc
}

// Messages returns the conversation in order. The sequence is lazy and can
// be ranged over more than once.
func (s *Session) Messages() iter.Seq[model.Message] {
	return s.log.All()
}

// MessageCount returns the number of messages in the log.
func (s *Session) MessageCount() int {
	return s.log.Len()
}

func (s *Session) Busy() bool {
	return s.pipe.Busy()
}

func (s *Session) Language() language.Tag {
	return s.text.Language()
}

// NextLanguage returns the supported language after the active one.
func (s *Session) NextLanguage() language.Tag {
	return s.text.Next()
}

// Text renders key in the active language.
func (s *Session) Text(key string, vars i18n.Vars) string {
	return s.text.Text(key, vars)
}

// CanRetry reports whether RetryAnalysis would be accepted.
func (s *Session) CanRetry() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode == ProcessingDocument && s.analysisFailed && !s.pipe.Busy()
}

// Snapshot returns the current observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	busy := s.pipe.Busy()
	return Snapshot{
		ID:           s.id,
		Mode:         s.mode,
		DocumentName: s.doc.Name,
		HasDocument:  s.hasDoc,
		Messages:     s.log.Len(),
		Busy:         busy,
		Language:     s.text.Language(),
		Generation:   s.generation,
		CanRetry:     s.mode == ProcessingDocument && s.analysisFailed && !busy,
	}
}

// =============================================================================
// OBSERVERS
// =============================================================================

// Subscribe registers fn and returns a function that removes it. Observers
// run synchronously on the goroutine that caused the transition, so they
// must not block. The TUI forwards them into its update loop.
func (s *Session) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Session) notify() {
	snap := s.Snapshot()

	s.obsMu.Lock()
	fns := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
