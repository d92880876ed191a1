package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"EnergyAnalyst/internal/config"
	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/ports"
)

type chatRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *ChatGPTClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewChatGPTClient(config.LLMConfig{
		Provider: config.ProviderOpenAI,
		Endpoint: srv.URL + "/v1",
		Model:    "gpt-4o",
		APIKey:   "sk-test",
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": content},
		}},
	})
}

func TestChatGPTComplete(t *testing.T) {
	t.Parallel()

	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeCompletion(w, "  Shell leads on margin.  ")
	})

	text, err := client.Complete(context.Background(), ports.CompletionRequest{
		System:      "You are an analyst.",
		User:        "Compare Shell vs BP",
		MaxTokens:   2000,
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "Shell leads on margin." {
		t.Fatalf("unexpected text %q", text)
	}
	if got.Model != "gpt-4o" || got.MaxTokens != 2000 || got.Temperature != 0.3 {
		t.Fatalf("unexpected request parameters: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "Compare Shell vs BP" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestChatGPTSendsZeroTemperature(t *testing.T) {
	t.Parallel()

	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeCompletion(w, "ok")
	})

	if _, err := client.Complete(context.Background(), ports.CompletionRequest{User: "hi", Temperature: 0}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	temperature, ok := body["temperature"].(float64)
	if !ok {
		t.Fatalf("zero temperature was dropped from the request: %v", body)
	}
	if temperature > 1e-6 {
		t.Fatalf("temperature = %v, want ~0", temperature)
	}
}

func TestChatGPTEmptyCompletion(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, "")
	})

	_, err := client.Complete(context.Background(), ports.CompletionRequest{User: "hi"})
	if !errors.Is(err, domain.ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestChatGPTProbeFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	})

	if err := client.Probe(context.Background()); err == nil {
		t.Fatalf("expected probe error")
	}
}

func TestNewWithoutKeyDisablesBackend(t *testing.T) {
	t.Parallel()

	completer, err := New(context.Background(), config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o"})
	if err != nil || completer != nil {
		t.Fatalf("expected no completer and no error, got %v, %v", completer, err)
	}

	if _, err := NewChatGPTClient(config.LLMConfig{Model: "gpt-4o"}); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}

	if _, err := New(context.Background(), config.LLMConfig{Provider: "claude", APIKey: "k"}); err == nil {
		t.Fatalf("expected unsupported provider error")
	}
}
