// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for a local Ollama server.
//
// EduMate uses it for the "ollama" responder: one non-streaming /api/chat
// call per document analysis or question.
//
// # Key Types
//
//   - Client: HTTP client for the Ollama API
//   - Message: chat message with role and content
//   - ChatResponse: reply message plus generation metrics
//   - ClientError: categorized error with sentinel values for errors.Is
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL:      "http://127.0.0.1:11434",
//	    DefaultModel: "qwen2.5:7b",
//	})
//	resp, err := client.Chat(ctx, "", []ollama.Message{
//	    ollama.NewSystemMessage("You are a study assistant."),
//	    ollama.NewUserMessage("Summarize chapter 1."),
//	})
package ollama
