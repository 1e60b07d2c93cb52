package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func completionHandler(t *testing.T, content string, inspect func(chatCompletionRequest)) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if inspect != nil {
			inspect(req)
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": content,
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func TestCompleteTextSendsPromptsAndTemperature(t *testing.T) {
	var captured chatCompletionRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		completionHandler(t, "  Het artikel.  ", func(req chatCompletionRequest) { captured = req })(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "default-model", MaxTokens: 2048})
	content, err := client.CompleteText(context.Background(), ChatRequest{
		Model:        "gpt-4o-mini",
		SystemRole:   "developer",
		SystemPrompt: "system text",
		UserPrompt:   "user text",
		Temperature:  0.6,
	})
	if err != nil {
		t.Fatalf("CompleteText returned error: %v", err)
	}
	if content != "Het artikel." {
		t.Fatalf("unexpected content %q", content)
	}
	if auth != "Bearer test" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if captured.Model != "gpt-4o-mini" {
		t.Fatalf("expected request model override, got %q", captured.Model)
	}
	if captured.Temperature != 0.6 || captured.MaxTokens != 2048 {
		t.Fatalf("unexpected sampling settings: %+v", captured)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "developer" || captured.Messages[1].Content != "user text" {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
}

func TestCompleteTextFallsBackToConfiguredModel(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(completionHandler(t, "ok", func(req chatCompletionRequest) { captured = req }))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "default-model"})
	if _, err := client.CompleteText(context.Background(), ChatRequest{UserPrompt: "hi"}); err != nil {
		t.Fatalf("CompleteText returned error: %v", err)
	}
	if captured.Model != "default-model" {
		t.Fatalf("expected configured model, got %q", captured.Model)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Fatalf("expected only a user message, got %+v", captured.Messages)
	}
}

func TestCompleteTextRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "demo"})
	_, err := client.CompleteText(context.Background(), ChatRequest{UserPrompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "api key required") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "OK", nil))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestCompleteTextDeltaAndLegacyText(t *testing.T) {
	for name, choice := range map[string]map[string]any{
		"delta":  {"delta": map[string]any{"content": "from delta"}},
		"legacy": {"text": "from delta"},
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{choice}})
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
			content, err := client.CompleteText(context.Background(), ChatRequest{UserPrompt: "hi"})
			if err != nil {
				t.Fatalf("CompleteText returned error: %v", err)
			}
			if content != "from delta" {
				t.Fatalf("unexpected content %q", content)
			}
		})
	}
}

func TestCompleteTextEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{"finish_reason": "length", "message": map[string]any{"content": ""}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	_, err := client.CompleteText(context.Background(), ChatRequest{UserPrompt: "hi"})
	if err == nil {
		t.Fatal("expected empty content error")
	}
	if !strings.Contains(err.Error(), `finish_reason="length"`) {
		t.Fatalf("expected finish reason in error, got %v", err)
	}
}

func TestCompleteTextIgnoresToolCallArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "tool_calls",
					"message": map[string]any{
						"content": "",
						"tool_calls": []any{
							map[string]any{"type": "function", "function": map[string]any{"name": "x", "arguments": `{"1314":1}`}},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	content, err := client.CompleteText(context.Background(), ChatRequest{UserPrompt: "hi"})
	if err == nil {
		t.Fatalf("expected empty content error, got text %q", content)
	}
	if !strings.Contains(err.Error(), `finish_reason="tool_calls"`) {
		t.Fatalf("expected finish reason in error, got %v", err)
	}
}

func TestClientDoesNotRetryByDefault(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	if _, err := client.CompleteText(context.Background(), ChatRequest{UserPrompt: "hi"}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
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
		completionHandler(t, "tekst", nil)(w, r)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	content, err := client.CompleteText(context.Background(), ChatRequest{UserPrompt: "hi"})
	if err != nil {
		t.Fatalf("CompleteText returned error: %v", err)
	}
	if content != "tekst" {
		t.Fatalf("unexpected content %q", content)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestConfigRetryAttemptsEnablesRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		completionHandler(t, "klaar", nil)(w, r)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo", RetryAttempts: 3},
		WithRetryBackoff(0, 0),
	)
	if _, err := client.CompleteText(context.Background(), ChatRequest{UserPrompt: "hi"}); err != nil {
		t.Fatalf("CompleteText returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("3"); !ok || d != 3*time.Second {
		t.Fatalf("unexpected parse: %v %v", d, ok)
	}
	if _, ok := parseRetryAfter("-1"); ok {
		t.Fatal("expected negative value to be rejected")
	}
	if _, ok := parseRetryAfter(""); ok {
		t.Fatal("expected empty value to be rejected")
	}
}
