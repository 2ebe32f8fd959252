// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import "context"

// Func adapts plain functions to Responder. Nil functions return an empty
// Result.
type Func struct {
	AnalyzeFunc func(ctx context.Context, req AnalyzeRequest) (Result, error)
	AnswerFunc  func(ctx context.Context, req AnswerRequest) (Result, error)
}

func (f Func) Analyze(ctx context.Context, req AnalyzeRequest) (Result, error) {
	if f.AnalyzeFunc == nil {
		return Result{}, nil
	}
	return f.AnalyzeFunc(ctx, req)
}

func (f Func) Answer(ctx context.Context, req AnswerRequest) (Result, error) {
	if f.AnswerFunc == nil {
		return Result{}, nil
	}
	return f.AnswerFunc(ctx, req)
}
