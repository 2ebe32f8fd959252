// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/", DefaultModel: "test-model"})
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestChat_Success(t *testing.T) {
	var got ChatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Model:        "test-model",
			Message:      NewAssistantMessage("Cells are the basic unit of life."),
			Done:         true,
			EvalCount:    10,
			EvalDuration: int64(2 * time.Second),
		})
	})

	resp, err := client.Chat(context.Background(), "", []Message{
		NewSystemMessage("system"),
		NewUserMessage("What is a cell?"),
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if got.Model != "test-model" {
		t.Errorf("request model = %q, want default", got.Model)
	}
	if got.Stream {
		t.Error("request Stream = true, want false")
	}
	if len(got.Messages) != 2 || got.Messages[1].Role != "user" {
		t.Errorf("request messages = %+v", got.Messages)
	}
	if resp.Message.Content != "Cells are the basic unit of life." {
		t.Errorf("Content = %q", resp.Message.Content)
	}
	if tps := resp.TokensPerSecond(); tps != 5 {
		t.Errorf("TokensPerSecond() = %v, want 5", tps)
	}
}

func TestChat_ModelNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Chat(context.Background(), "missing", nil)
	if !IsModelNotFound(err) {
		t.Errorf("error = %v, want model not found", err)
	}
}

func TestChat_ErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"out of memory"}`))
	})

	_, err := client.Chat(context.Background(), "", nil)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("error = %v, want ErrInvalidResponse", err)
	}
	if err.Error() != "out of memory" {
		t.Errorf("Error() = %q, want %q", err.Error(), "out of memory")
	}
}

func TestChat_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Chat(ctx, "", nil)
	if !IsTimeout(err) {
		t.Errorf("error = %v, want timeout", err)
	}
}

func TestChat_Cancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.Chat(ctx, "", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// =============================================================================
// HEALTH + MODELS
// =============================================================================

func TestCheckRunning(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	})
	if err := client.CheckRunning(context.Background()); err != nil {
		t.Errorf("CheckRunning() = %v", err)
	}
}

func TestCheckRunning_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url})
	if err := client.CheckRunning(context.Background()); !IsNotRunning(err) {
		t.Errorf("CheckRunning() = %v, want not running", err)
	}
}

func TestListModels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"models":[{"name":"qwen2.5:7b","size":4700000000}]}`))
	})

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 1 || models[0].Name != "qwen2.5:7b" {
		t.Errorf("models = %+v", models)
	}
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{})
	if c.config.BaseURL != "http://127.0.0.1:11434" {
		t.Errorf("BaseURL = %q", c.config.BaseURL)
	}
	if c.Model() != "qwen2.5:7b" {
		t.Errorf("Model() = %q", c.Model())
	}
}
