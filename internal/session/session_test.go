// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/jeranaias/edumate/internal/i18n"
	"github.com/jeranaias/edumate/internal/model"
	"github.com/jeranaias/edumate/internal/pipeline"
	"github.com/jeranaias/edumate/internal/storage"
)

type harness struct {
	s     *Session
	text  *i18n.Provider
	store *storage.MemoryStore

	analyzeErr error
	summary    string
	answerErr  error
	lastAnswer pipeline.AnswerRequest
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cat, err := i18n.NewCatalog()
	require.NoError(t, err)

	h := &harness{store: storage.NewMemoryStore()}
	h.text = i18n.NewProvider(cat, h.store, i18n.ProviderOptions{Strict: true})

	responder := pipeline.Func{
		AnalyzeFunc: func(ctx context.Context, req pipeline.AnalyzeRequest) (pipeline.Result, error) {
			return pipeline.Result{Text: h.summary}, h.analyzeErr
		},
		AnswerFunc: func(ctx context.Context, req pipeline.AnswerRequest) (pipeline.Result, error) {
			h.lastAnswer = req
			return pipeline.Result{Text: "answer to " + req.Question}, h.answerErr
		},
	}
	h.s = New(pipeline.New(responder, pipeline.Options{}), h.text, Options{})
	return h
}

func notes() model.Document {
	return model.NewDocument("notes.pdf", []byte("%PDF-1.4"))
}

func messages(s *Session) []model.Message {
	var out []model.Message
	for m := range s.Messages() {
		out = append(out, m)
	}
	return out
}

// converse brings the session into Conversing.
func (h *harness) converse(t *testing.T) {
	t.Helper()
	job, ok := h.s.SelectDocument(notes())
	require.True(t, ok)
	require.True(t, h.s.Apply(job()))
	require.Equal(t, Conversing, h.s.Mode())
}

// =============================================================================
// END TO END
// =============================================================================

func TestSession_EndToEnd(t *testing.T) {
	h := newHarness(t)
	s := h.s

	assert.Equal(t, AwaitingDocument, s.Mode())
	assert.False(t, s.Busy())

	job, ok := s.SelectDocument(notes())
	require.True(t, ok)
	assert.Equal(t, ProcessingDocument, s.Mode())
	assert.True(t, s.Busy())
	doc, has := s.Document()
	assert.True(t, has)
	assert.Equal(t, "notes.pdf", doc.Name)

	require.True(t, s.Apply(job()))
	assert.Equal(t, Conversing, s.Mode())
	assert.False(t, s.Busy())
	msgs := messages(s)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleAssistant, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "notes.pdf")

	job, ok = s.SubmitText("What is chapter 2 about?")
	require.True(t, ok)
	msgs = messages(s)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[1].Role)
	assert.Equal(t, "What is chapter 2 about?", msgs[1].Content)
	assert.True(t, s.Busy())

	require.True(t, s.Apply(job()))
	msgs = messages(s)
	require.Len(t, msgs, 3)
	assert.Equal(t, "answer to What is chapter 2 about?", msgs[2].Content)
	assert.False(t, s.Busy())

	for i, m := range msgs {
		assert.Equal(t, i+1, m.Sequence)
	}
}

func TestSession_InitialMessageUsesTemplate(t *testing.T) {
	h := newHarness(t)
	h.converse(t)

	msgs := messages(h.s)
	want := "Great! I've analyzed your document \"notes.pdf\"."
	assert.True(t, strings.HasPrefix(msgs[0].Content, want), msgs[0].Content)
}

func TestSession_InitialMessageWithSummary(t *testing.T) {
	h := newHarness(t)
	h.summary = "- Cells\n- Energy"
	h.converse(t)

	msgs := messages(h.s)
	assert.Contains(t, msgs[0].Content, "notes.pdf")
	assert.Contains(t, msgs[0].Content, "- Cells\n- Energy")
}

func TestSession_AnswerGetsHistoryWithoutQuestion(t *testing.T) {
	h := newHarness(t)
	h.converse(t)

	job, ok := h.s.SubmitText("  first?  ")
	require.True(t, ok)
	h.s.Apply(job())

	job, ok = h.s.SubmitText("second?")
	require.True(t, ok)
	job()

	assert.Equal(t, "second?", h.lastAnswer.Question)
	assert.Equal(t, "notes.pdf", h.lastAnswer.Document.Name)
	require.Len(t, h.lastAnswer.History, 3)
	assert.Equal(t, "first?", h.lastAnswer.History[1].Content)
	assert.Equal(t, language.English, h.lastAnswer.Language)
}

// =============================================================================
// GUARDS
// =============================================================================

func TestSession_RejectsInvalidDocuments(t *testing.T) {
	h := newHarness(t)

	tests := []model.Document{
		{},
		{Name: "  ", Handle: strings.NewReader("x")},
		{Name: "notes.pdf"},
	}
	for _, doc := range tests {
		_, ok := h.s.SelectDocument(doc)
		assert.False(t, ok, "document %+v", doc)
	}
	assert.Equal(t, AwaitingDocument, h.s.Mode())
	assert.False(t, h.s.Busy())
}

func TestSession_IgnoresDocumentOutsideAwaiting(t *testing.T) {
	h := newHarness(t)

	_, ok := h.s.SelectDocument(notes())
	require.True(t, ok)
	_, ok = h.s.SelectDocument(model.NewDocument("other.txt", []byte("x")))
	assert.False(t, ok)

	doc, _ := h.s.Document()
	assert.Equal(t, "notes.pdf", doc.Name)
}

func TestSession_IgnoresBlankText(t *testing.T) {
	h := newHarness(t)
	h.converse(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, ok := h.s.SubmitText(text)
		assert.False(t, ok, "text %q", text)
	}
	assert.Equal(t, 1, h.s.MessageCount())
	assert.False(t, h.s.Busy())
}

func TestSession_IgnoresTextWhileBusy(t *testing.T) {
	h := newHarness(t)
	h.converse(t)

	_, ok := h.s.SubmitText("first")
	require.True(t, ok)
	before := h.s.MessageCount()

	for i := 0; i < 3; i++ {
		_, ok = h.s.SubmitText("again")
		assert.False(t, ok)
	}
	assert.Equal(t, before, h.s.MessageCount())
}

func TestSession_IgnoresTextWithoutDocument(t *testing.T) {
	h := newHarness(t)

	_, ok := h.s.SubmitText("hello")
	assert.False(t, ok)

	_, ok = h.s.SelectDocument(notes())
	require.True(t, ok)
	_, ok = h.s.SubmitText("hello")
	assert.False(t, ok, "text while processing")
	assert.Zero(t, h.s.MessageCount())
}

// =============================================================================
// RESET
// =============================================================================

func TestSession_Reset(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.s.Reset(), "nothing to reset")

	h.converse(t)
	_, ok := h.s.SubmitText("pending")
	require.True(t, ok)
	gen := h.s.Snapshot().Generation

	assert.True(t, h.s.Reset())
	assert.Equal(t, AwaitingDocument, h.s.Mode())
	assert.Zero(t, h.s.MessageCount())
	assert.False(t, h.s.Busy())
	_, has := h.s.Document()
	assert.False(t, has)
	assert.Equal(t, gen+1, h.s.Snapshot().Generation)

	// Sequence numbers restart.
	h.converse(t)
	assert.Equal(t, 1, messages(h.s)[0].Sequence)
}

func TestSession_ResetAlwaysEmpties(t *testing.T) {
	h := newHarness(t)
	r := rand.New(rand.NewPCG(1, 2))

	var pending []pipeline.Job
	for step := 0; step < 500; step++ {
		switch r.IntN(5) {
		case 0:
			if job, ok := h.s.SelectDocument(notes()); ok {
				pending = append(pending, job)
			}
		case 1:
			if job, ok := h.s.SubmitText("question"); ok {
				pending = append(pending, job)
			}
		case 2:
			if len(pending) > 0 {
				i := r.IntN(len(pending))
				h.s.Apply(pending[i]())
				pending = append(pending[:i], pending[i+1:]...)
			}
		default:
			h.s.Reset()
			assert.Equal(t, AwaitingDocument, h.s.Mode())
			assert.Zero(t, h.s.MessageCount())
			assert.False(t, h.s.Busy())
		}
	}
}

func TestSession_StaleCompletionIsDropped(t *testing.T) {
	h := newHarness(t)

	stale, ok := h.s.SelectDocument(notes())
	require.True(t, ok)
	h.s.Reset()

	fresh, ok := h.s.SelectDocument(model.NewDocument("new.txt", []byte("x")))
	require.True(t, ok)

	assert.False(t, h.s.Apply(stale()))
	assert.Zero(t, h.s.MessageCount())
	assert.Equal(t, ProcessingDocument, h.s.Mode())
	assert.True(t, h.s.Busy(), "stale completion must not settle the new request")

	require.True(t, h.s.Apply(fresh()))
	assert.Contains(t, messages(h.s)[0].Content, "new.txt")
}

func TestSession_StaleAnswerAfterReset(t *testing.T) {
	h := newHarness(t)
	h.converse(t)

	stale, ok := h.s.SubmitText("question")
	require.True(t, ok)
	h.s.Reset()
	h.converse(t)

	assert.False(t, h.s.Apply(stale()))
	assert.Equal(t, 1, h.s.MessageCount())
}

// =============================================================================
// FAILURES
// =============================================================================

func TestSession_AnalysisFailureAndRetry(t *testing.T) {
	h := newHarness(t)
	h.analyzeErr = pipeline.ErrUnavailable

	_, ok := h.s.RetryAnalysis()
	assert.False(t, ok, "nothing to retry")

	job, ok := h.s.SelectDocument(notes())
	require.True(t, ok)
	require.True(t, h.s.Apply(job()))

	assert.Equal(t, ProcessingDocument, h.s.Mode())
	assert.False(t, h.s.Busy())
	assert.True(t, h.s.CanRetry())
	msgs := messages(h.s)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleAssistant, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "notes.pdf")
	assert.Contains(t, msgs[0].Content, "not available")

	h.analyzeErr = nil
	job, ok = h.s.RetryAnalysis()
	require.True(t, ok)
	assert.False(t, h.s.CanRetry())
	_, ok = h.s.RetryAnalysis()
	assert.False(t, ok, "retry while busy")

	require.True(t, h.s.Apply(job()))
	assert.Equal(t, Conversing, h.s.Mode())
	assert.Equal(t, 2, h.s.MessageCount())
}

func TestSession_AnswerFailureKeepsConversing(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"timeout", pipeline.ErrTimeout, "took too long"},
		{"generic", errors.New("boom"), "something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.converse(t)
			h.answerErr = tt.err

			job, ok := h.s.SubmitText("question")
			require.True(t, ok)
			require.True(t, h.s.Apply(job()))

			assert.Equal(t, Conversing, h.s.Mode())
			assert.False(t, h.s.Busy())
			msgs := messages(h.s)
			require.Len(t, msgs, 3)
			assert.Equal(t, model.RoleAssistant, msgs[2].Role)
			assert.Contains(t, msgs[2].Content, tt.reason)
		})
	}
}

func TestSession_MismatchedCompletionIgnored(t *testing.T) {
	h := newHarness(t)
	h.converse(t)

	assert.False(t, h.s.Apply(pipeline.Completion{Kind: pipeline.KindAnalysis}))
	assert.Equal(t, 1, h.s.MessageCount())
}

// =============================================================================
// LANGUAGE
// =============================================================================

func TestSession_ChangeLanguageMidConversation(t *testing.T) {
	h := newHarness(t)
	h.converse(t)
	job, _ := h.s.SubmitText("hello")
	h.s.Apply(job())

	before := messages(h.s)
	assert.Equal(t, "New Document", h.s.Text(i18n.KeyNewDocument, nil))

	require.NoError(t, h.s.ChangeLanguage(context.Background(), language.Spanish))

	assert.Equal(t, language.Spanish, h.s.Language())
	assert.Equal(t, "Nuevo documento", h.s.Text(i18n.KeyNewDocument, nil))
	assert.Equal(t, Conversing, h.s.Mode())
	assert.Equal(t, before, messages(h.s))

	stored, err := h.store.Get(context.Background(), storage.KeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, "es", stored)

	// New messages use the new language.
	h.answerErr = pipeline.ErrTimeout
	job, _ = h.s.SubmitText("otra")
	h.s.Apply(job())
	last := messages(h.s)[h.s.MessageCount()-1]
	assert.Contains(t, last.Content, "tardó demasiado")
}

func TestSession_ChangeLanguageUnsupported(t *testing.T) {
	h := newHarness(t)

	err := h.s.ChangeLanguage(context.Background(), language.Japanese)
	assert.ErrorIs(t, err, i18n.ErrUnsupportedLanguage)
	assert.Equal(t, language.English, h.s.Language())
}

func TestSession_ChangeLanguagePersistenceFailure(t *testing.T) {
	h := newHarness(t)
	h.store.SetErr = errors.New("disk full")

	require.NoError(t, h.s.ChangeLanguage(context.Background(), language.Spanish))
	assert.Equal(t, language.Spanish, h.s.Language())
}

// =============================================================================
// OBSERVERS
// =============================================================================

func TestSession_Observers(t *testing.T) {
	h := newHarness(t)

	var snaps []Snapshot
	unsubscribe := h.s.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	job, _ := h.s.SelectDocument(notes())
	require.Len(t, snaps, 1)
	assert.Equal(t, ProcessingDocument, snaps[0].Mode)
	assert.True(t, snaps[0].Busy)
	assert.Equal(t, "notes.pdf", snaps[0].DocumentName)
	assert.Equal(t, h.s.ID(), snaps[0].ID)

	h.s.Apply(job())
	require.Len(t, snaps, 2)
	assert.Equal(t, Conversing, snaps[1].Mode)
	assert.Equal(t, 1, snaps[1].Messages)
	assert.False(t, snaps[1].Busy)

	// Rejected events do not notify.
	h.s.SubmitText("   ")
	assert.Len(t, snaps, 2)

	unsubscribe()
	h.s.Reset()
	assert.Len(t, snaps, 2)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "awaiting_document", AwaitingDocument.String())
	assert.Equal(t, "processing_document", ProcessingDocument.String())
	assert.Equal(t, "conversing", Conversing.String())
	assert.Equal(t, "unknown", Mode(9).String())
}
