package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func choicePayload(choice map[string]any) map[string]any {
	return map[string]any{"choices": []any{choice}}
}

func TestClientCompleteSendsPromptsAndModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "demo-model" || len(req.Messages) != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		if req.Messages[0].Role != "system" || req.Messages[1].Content != "Text: hello\nTitle:" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(choicePayload(map[string]any{
			"message": map[string]any{"content": "  Greeting  "},
		}))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL + "/v1/", Model: "demo-model"})
	got, err := client.Complete(context.Background(), "You are a title generation AI.", "Text: hello\nTitle:")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "Greeting" {
		t.Fatalf("expected trimmed reply, got %q", got)
	}
}

func TestClientCompleteWithoutAPIKeyOmitsAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("expected no authorization header")
		}
		_ = json.NewEncoder(w).Encode(choicePayload(map[string]any{"text": "legacy"}))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/chat/completions", Model: "m"})
	got, err := client.Complete(context.Background(), "", "prompt")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "legacy" {
		t.Fatalf("expected legacy text payload, got %q", got)
	}
}

func TestClientCompleteUnconfigured(t *testing.T) {
	client := NewClient(Config{Model: "m"})
	if _, err := client.Complete(context.Background(), "sys", "user"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestClientCompleteDeltaContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(choicePayload(map[string]any{
			"delta": map[string]any{"content": "streamed"},
		}))
	}))
	defer server.Close()

	got, err := NewClient(Config{BaseURL: server.URL}).Complete(context.Background(), "s", "u")
	if err != nil || got != "streamed" {
		t.Fatalf("expected delta content, got %q err=%v", got, err)
	}
}

func TestClientEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(choicePayload(map[string]any{
			"finish_reason": "length",
			"message":       map[string]any{"content": "", "reasoning_content": "thinking..."},
		}))
	}))
	defer server.Close()

	client := NewClient(
		Config{BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected completion to fail")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Fatalf("expected retries to be exhausted, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		_ = json.NewEncoder(w).Encode(choicePayload(map[string]any{
			"message": map[string]any{"content": "ok"},
		}))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	if _, err := client.Complete(context.Background(), "s", "u"); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	_, err := client.Complete(context.Background(), "s", "u")
	var statusErr *httpStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestClientPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"demo"}]}`))
	}))
	defer server.Close()

	if err := NewClient(Config{BaseURL: server.URL + "/v1/chat/completions"}).Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	if err := NewClient(Config{BaseURL: server.URL}).Ping(context.Background()); err == nil {
		t.Fatal("expected ping against wrong base to fail")
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, expected := range want {
		if got := client.backoffDelay(i + 1); got != expected {
			t.Fatalf("attempt %d: expected %s, got %s", i+1, expected, got)
		}
	}
}
