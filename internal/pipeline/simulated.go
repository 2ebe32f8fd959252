// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/jeranaias/edumate/internal/i18n"
)

// ErrSimulatedFailure is returned when the simulated responder is told to
// fail a request.
var ErrSimulatedFailure = errors.New("simulated responder failure")

// Phrases renders localized text. *i18n.Provider satisfies it.
type Phrases interface {
	Text(key string, vars i18n.Vars) string
}

// Simulated answers after fixed delays with canned, localized text. It
// does not read the document.
type Simulated struct {
	AnalyzeDelay time.Duration
	AnswerDelay  time.Duration

	// FailRate is the fraction of requests, in [0, 1], that fail with
	// ErrSimulatedFailure.
	FailRate float64

	phrases Phrases
	roll    func() float64
}

// NewSimulated creates a simulated responder.
func NewSimulated(analyzeDelay, answerDelay time.Duration, phrases Phrases) *Simulated {
	return &Simulated{
		AnalyzeDelay: analyzeDelay,
		AnswerDelay:  answerDelay,
		phrases:      phrases,
		roll:         rand.Float64,
	}
}

// Analyze waits AnalyzeDelay and returns no summary, so the session greets
// the user with the plain initial message.
func (s *Simulated) Analyze(ctx context.Context, req AnalyzeRequest) (Result, error) {
	if err := s.wait(ctx, s.AnalyzeDelay); err != nil {
		return Result{}, err
	}
	return Result{}, nil
}

// Answer waits AnswerDelay and returns the canned answer.
func (s *Simulated) Answer(ctx context.Context, req AnswerRequest) (Result, error) {
	if err := s.wait(ctx, s.AnswerDelay); err != nil {
		return Result{}, err
	}
	return Result{Text: s.phrases.Text(i18n.KeySimulatedAnswer, i18n.Vars{"question": req.Question})}, nil
}

func (s *Simulated) wait(ctx context.Context, d time.Duration) error {
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if s.FailRate > 0 && s.roll() < s.FailRate {
		return ErrSimulatedFailure
	}
	return nil
}
