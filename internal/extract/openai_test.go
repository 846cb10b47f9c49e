package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIClient_ExtractJSON(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"explanation\":\"Draw trumps.\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	text, err := c.ExtractJSON(context.Background(), []byte("png"), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"explanation":"Draw trumps."}` {
		t.Errorf("unexpected text %q", text)
	}
	if body["model"] != DefaultOpenAIModel {
		t.Errorf("expected model %s, got %v", DefaultOpenAIModel, body["model"])
	}
	raw, _ := json.Marshal(body["messages"])
	if !strings.Contains(string(raw), "data:image/png;base64,") {
		t.Errorf("expected image data URL in %s", raw)
	}
}

func TestOpenAIClient_RateLimitIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := c.ExtractJSON(context.Background(), nil, "p")
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetryableError, got %v", err)
	}
	if re.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", re.StatusCode)
	}
}

func TestNewVisionClient(t *testing.T) {
	if _, err := NewVisionClient(ProviderConfig{Provider: "anthropic"}); err == nil {
		t.Error("expected missing key error")
	}
	if _, err := NewVisionClient(ProviderConfig{Provider: "bogus", AnthropicKey: "k"}); err == nil {
		t.Error("expected unknown provider error")
	}
	c, err := NewVisionClient(ProviderConfig{Provider: "OpenAI", OpenAIKey: "k", OpenAIModel: "gpt-4.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Model() != "gpt-4.1" {
		t.Errorf("expected model gpt-4.1, got %s", c.Model())
	}
	c, err = NewVisionClient(ProviderConfig{AnthropicKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.(*ClaudeClient); !ok {
		t.Errorf("expected anthropic default, got %T", c)
	}
}
