// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/jeranaias/edumate/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy is returned when a request is started while another is
	// outstanding.
	ErrBusy = errors.New("pipeline busy")

	// ErrTimeout is reported when a request exceeds the configured timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrCancelled is reported by jobs abandoned through Cancel.
	ErrCancelled = errors.New("request cancelled")

	// ErrUnavailable marks responder failures caused by a backend that
	// cannot be reached.
	ErrUnavailable = errors.New("responder unavailable")
)

// =============================================================================
// TYPES
// =============================================================================

// Kind tells which operation produced a Completion.
type Kind int

const (
	KindAnalysis Kind = iota
	KindAnswer
)

func (k Kind) String() string {
	switch k {
	case KindAnalysis:
		return "analysis"
	case KindAnswer:
		return "answer"
	default:
		return "unknown"
	}
}

// AnalyzeRequest asks for a first look at a document.
type AnalyzeRequest struct {
	Document model.Document
	Language language.Tag
}

// AnswerRequest asks a question about the document. History holds the
// messages exchanged before the question.
type AnswerRequest struct {
	Question string
	Document model.Document
	History  []model.Message
	Language language.Tag
}

// Result is what a responder produces. Analyses may leave Text empty.
type Result struct {
	Text string
}

// Responder produces analyses and answers. Implementations should return
// promptly once ctx is done.
type Responder interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (Result, error)
	Answer(ctx context.Context, req AnswerRequest) (Result, error)
}

// Completion is the outcome of a Job.
type Completion struct {
	Kind       Kind
	Generation uint64
	Text       string
	Err        error
	Elapsed    time.Duration
}

// Failed reports whether the request did not succeed.
func (c Completion) Failed() bool {
	return c.Err != nil
}

// Job performs one request. It blocks and must not run on the UI thread.
type Job func() Completion

// =============================================================================
// PIPELINE
// =============================================================================

// Options configures a Pipeline.
type Options struct {
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// Limiter, if set, is waited on before each request. The wait counts
	// toward the timeout.
	Limiter *rate.Limiter

	Logger *zap.Logger
}

// DefaultTimeout applies when Options.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// Pipeline serializes requests to a Responder.
type Pipeline struct {
	responder Responder
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    *zap.Logger
	cancelMgr *cancelManager

	mu   sync.Mutex
	busy bool
}

// New creates a pipeline in front of responder.
func New(responder Responder, opts Options) *Pipeline {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		responder: responder,
		timeout:   opts.Timeout,
		limiter:   opts.Limiter,
		logger:    logger.With(zap.String("component", "pipeline")),
		cancelMgr: newCancelManager(),
	}
}

// NewLimiter returns a limiter allowing perMinute requests with the given
// burst, or nil when perMinute is zero.
func NewLimiter(perMinute, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

// Busy reports whether a request is outstanding.
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Timeout returns the per-request timeout.
func (p *Pipeline) Timeout() time.Duration {
	return p.timeout
}

// Analyze marks the pipeline busy and returns the job that analyzes
// req.Document.
func (p *Pipeline) Analyze(gen uint64, req AnalyzeRequest) (Job, error) {
	return p.start(KindAnalysis, gen, func(ctx context.Context) (Result, error) {
		return p.responder.Analyze(ctx, req)
	})
}

// Answer marks the pipeline busy and returns the job that answers
// req.Question.
func (p *Pipeline) Answer(gen uint64, req AnswerRequest) (Job, error) {
	return p.start(KindAnswer, gen, func(ctx context.Context) (Result, error) {
		return p.responder.Answer(ctx, req)
	})
}

// Settle clears the busy flag after the caller has applied a completion.
func (p *Pipeline) Settle() {
	p.cancelMgr.clear()
	p.mu.Lock()
	p.busy = false
	p.mu.Unlock()
}

// Cancel abandons the outstanding request, if any, and clears the busy
// flag. The abandoned job still returns a Completion, with ErrCancelled.
func (p *Pipeline) Cancel() {
	p.cancelMgr.cancel()
	p.mu.Lock()
	p.busy = false
	p.mu.Unlock()
}

func (p *Pipeline) start(kind Kind, gen uint64, call func(context.Context) (Result, error)) (Job, error) {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	p.busy = true
	p.mu.Unlock()

	// The context exists from the moment the request is accepted so Cancel
	// works even before the job is scheduled.
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	p.cancelMgr.setCancelFunc(cancel)

	logger := p.logger.With(zap.Stringer("kind", kind), zap.Uint64("generation", gen))
	logger.Debug("request accepted")

	return func() Completion {
		defer cancel()
		started := time.Now()

		text, err := p.run(ctx, call)
		c := Completion{
			Kind:       kind,
			Generation: gen,
			Text:       text,
			Err:        err,
			Elapsed:    time.Since(started),
		}

		if err != nil {
			logger.Warn("request failed", zap.Error(err), zap.Duration("elapsed", c.Elapsed))
		} else {
			logger.Info("request completed", zap.Duration("elapsed", c.Elapsed))
		}
		return c
	}, nil
}

func (p *Pipeline) run(ctx context.Context, call func(context.Context) (Result, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", contextError(ctx, err)
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			if ctx.Err() == nil {
				// The next token arrives after the deadline.
				return "", fmt.Errorf("%w: rate limited", ErrTimeout)
			}
			return "", contextError(ctx, err)
		}
	}

	type outcome struct {
		res Result
		err error
	}
	// Buffered so a responder that ignores ctx can still finish and exit.
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("responder panic: %v", r)}
			}
		}()
		res, err := call(ctx)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return "", contextError(ctx, o.err)
		}
		return o.res.Text, nil
	case <-ctx.Done():
		return "", contextError(ctx, ctx.Err())
	}
}

// contextError replaces err with ErrTimeout or ErrCancelled when ctx ended.
func contextError(ctx context.Context, err error) error {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ErrTimeout
	case context.Canceled:
		return ErrCancelled
	default:
		return err
	}
}

// =============================================================================
// FAILURE REASONS
// =============================================================================

// Reason groups failures for user-facing messages.
type Reason int

const (
	ReasonGeneric Reason = iota
	ReasonTimeout
	ReasonUnavailable
)

// Classify maps a completion error to a Reason.
func Classify(err error) Reason {
	switch {
	case errors.Is(err, ErrTimeout):
		return ReasonTimeout
	case errors.Is(err, ErrUnavailable):
		return ReasonUnavailable
	default:
		return ReasonGeneric
	}
}
