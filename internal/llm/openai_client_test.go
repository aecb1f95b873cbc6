package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	calerrors "calagent/internal/errors"
)

func TestOpenAIClientCompleteSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if got := r.URL.Path; got != "/chat/completions" {
			t.Fatalf("unexpected path: %s", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("expected Authorization header, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Fatalf("expected Content-Type header, got %q", got)
		}
		if got := r.Header.Get("X-Custom"); got != "value" {
			t.Fatalf("expected custom header, got %q", got)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["model"] != "test-model" {
			t.Fatalf("unexpected model: %v", payload["model"])
		}
		if payload["temperature"] != 0.1 {
			t.Fatalf("unexpected temperature: %v", payload["temperature"])
		}
		if payload["max_tokens"] != float64(500) {
			t.Fatalf("unexpected max_tokens: %v", payload["max_tokens"])
		}
		if payload["reasoning_effort"] != "medium" {
			t.Fatalf("unexpected reasoning_effort: %v", payload["reasoning_effort"])
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []any{
				map[string]any{
					"message":       map[string]any{"content": `{"intent":"create"}`},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     3,
				"completion_tokens": 4,
				"total_tokens":      7,
			},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("write response: %v", err)
		}
	}))
	defer server.Close()

	client, err := NewOpenAIClient("test-model", Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 1,
		Headers: map[string]string{"X-Custom": "value"},
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}

	req := CompletionRequest{
		Messages:        []Message{{Role: "system", Content: "prompt"}, {Role: "user", Content: "hi"}},
		Temperature:     0.1,
		MaxTokens:       500,
		ReasoningEffort: "medium",
	}

	resp, err := client.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"intent":"create"}` {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if resp.StopReason != "stop" {
		t.Fatalf("unexpected stop reason: %q", resp.StopReason)
	}
	if resp.Usage.TotalTokens != 7 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
}

func TestOpenAIClientOmitsReasoningEffortWhenUnset(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if _, ok := payload["reasoning_effort"]; ok {
			t.Fatalf("reasoning_effort should be omitted, got %v", payload["reasoning_effort"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("test-model", Config{BaseURL: server.URL, Timeout: 1})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	if _, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
}

func TestOpenAIClientHTTPErrorMapped(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limited"))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("test-model", Config{BaseURL: server.URL, Timeout: 1})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}

	_, err = client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !calerrors.IsTransient(err) {
		t.Fatalf("expected transient classification, got %v", err)
	}
}

func TestOpenAIClientAuthErrorPermanent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad key"))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("test-model", Config{BaseURL: server.URL, Timeout: 1})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}

	_, err = client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !calerrors.IsPermanent(err) {
		t.Fatalf("expected permanent classification, got %v", err)
	}
}

func TestOpenAIClientEmptyChoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("test-model", Config{BaseURL: server.URL, Timeout: 1})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}

	_, err = client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
	if !calerrors.IsTransient(err) {
		t.Fatalf("expected transient classification, got %v", err)
	}
}
