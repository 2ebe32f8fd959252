// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/jeranaias/edumate/internal/extract"
	"github.com/jeranaias/edumate/internal/model"
	"github.com/jeranaias/edumate/internal/ollama"
)

// ChatClient is the part of *ollama.Client the responder needs.
type ChatClient interface {
	Chat(ctx context.Context, model string, messages []ollama.Message) (*ollama.ChatResponse, error)
}

// DefaultMaxDocumentChars bounds the document excerpt sent with a prompt.
const DefaultMaxDocumentChars = 12000

// Ollama answers with a local model. The document text is extracted once
// per selected document and sent as context with every request.
type Ollama struct {
	client   ChatClient
	model    string
	maxChars int
	logger   *zap.Logger

	mu    sync.Mutex
	cache struct {
		docID string
		text  string
	}
}

// NewOllama creates a responder backed by client. An empty model uses the
// client's default.
func NewOllama(client ChatClient, model string, maxChars int, logger *zap.Logger) *Ollama {
	if maxChars <= 0 {
		maxChars = DefaultMaxDocumentChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ollama{
		client:   client,
		model:    model,
		maxChars: maxChars,
		logger:   logger.With(zap.String("component", "ollama-responder")),
	}
}

// Analyze asks the model for a short overview of the document. When no
// text can be extracted the analysis succeeds with an empty summary.
func (o *Ollama) Analyze(ctx context.Context, req AnalyzeRequest) (Result, error) {
	excerpt := o.excerpt(req.Document)
	if excerpt == "" {
		return Result{}, nil
	}

	messages := []ollama.Message{
		ollama.NewSystemMessage(systemPrompt(req.Language, req.Document.Name, excerpt)),
		ollama.NewUserMessage("Give a short overview of this document: its subject and " +
			"the three to five key topics a student should study, as a bullet list."),
	}
	return o.chat(ctx, messages)
}

// Answer asks the model the user's question with the conversation so far.
func (o *Ollama) Answer(ctx context.Context, req AnswerRequest) (Result, error) {
	messages := make([]ollama.Message, 0, len(req.History)+2)
	messages = append(messages, ollama.NewSystemMessage(
		systemPrompt(req.Language, req.Document.Name, o.excerpt(req.Document))))
	for _, m := range req.History {
		if m.Role == model.RoleUser {
			messages = append(messages, ollama.NewUserMessage(m.Content))
		} else {
			messages = append(messages, ollama.NewAssistantMessage(m.Content))
		}
	}
	messages = append(messages, ollama.NewUserMessage(req.Question))
	return o.chat(ctx, messages)
}

func (o *Ollama) chat(ctx context.Context, messages []ollama.Message) (Result, error) {
	resp, err := o.client.Chat(ctx, o.model, messages)
	if err != nil {
		switch {
		case ollama.IsNotRunning(err), ollama.IsModelNotFound(err):
			return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		case ollama.IsTimeout(err):
			return Result{}, ErrTimeout
		default:
			return Result{}, err
		}
	}

	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		return Result{}, errors.New("model returned an empty reply")
	}
	o.logger.Debug("model replied",
		zap.String("model", resp.Model),
		zap.Int("eval_count", resp.EvalCount),
		zap.Float64("tokens_per_sec", resp.TokensPerSecond()))
	return Result{Text: text}, nil
}

// excerpt returns the (cached, truncated) text of doc, or "" when the
// format has no extractor or extraction fails.
func (o *Ollama) excerpt(doc model.Document) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Documents without an ID were not built by model and are never cached.
	if doc.ID != "" && o.cache.docID == doc.ID && o.cache.text != "" {
		return o.cache.text
	}

	text, err := extract.Text(doc)
	if err != nil {
		o.logger.Warn("document text unavailable", zap.String("document", doc.Name), zap.Error(err))
		return ""
	}
	text, cut := extract.Truncate(text, o.maxChars)
	if cut {
		o.logger.Info("document excerpt truncated",
			zap.String("document", doc.Name), zap.Int("max_chars", o.maxChars))
	}

	o.cache.docID, o.cache.text = doc.ID, text
	return text
}

func systemPrompt(tag language.Tag, docName, excerpt string) string {
	if tag == language.Und {
		tag = language.English
	}
	var b strings.Builder
	b.WriteString("You are EduMate, a patient study companion. Help the student understand ")
	b.WriteString("the document they uploaded. Answer only from the document when you can and ")
	b.WriteString("say so when the document does not cover the question. ")
	fmt.Fprintf(&b, "Always reply in %s.\n\n", languageName(tag))
	fmt.Fprintf(&b, "Document name: %s\n", docName)
	if excerpt == "" {
		b.WriteString("The document text could not be read; rely on its name and the conversation.\n")
	} else {
		b.WriteString("Document text:\n<<<\n")
		b.WriteString(excerpt)
		b.WriteString("\n>>>\n")
	}
	return b.String()
}

func languageName(tag language.Tag) string {
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return tag.String()
}
