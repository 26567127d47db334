package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eixoai/docchat-go/internal/domain/entities"
	openai "github.com/sashabaranov/go-openai"
)

func chatCompletionBody(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "llama-3.3-70b-versatile",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

func TestOpenAIAdapter_Chat(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req openai.ChatCompletionRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		json.NewEncoder(w).Encode(chatCompletionBody("the answer"))
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "test-key", "", time.Second)
	resp, err := adapter.Chat(context.Background(), entities.ChatRequest{
		Messages: []entities.ChatMessage{{Role: entities.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if resp.Content != "the answer" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if gotModel != "llama-3.3-70b-versatile" {
		t.Errorf("default model not applied, got %q", gotModel)
	}
}

func TestOpenAIAdapter_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "bad-key", "", time.Second)
	_, err := adapter.Chat(context.Background(), entities.ChatRequest{})

	var genErr *entities.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Category != entities.GenerationAuth {
		t.Errorf("expected auth category, got %s", genErr.Category)
	}
}

func TestOpenAIAdapter_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"requests"}}`))
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "key", "", time.Second)
	_, err := adapter.Chat(context.Background(), entities.ChatRequest{})

	var genErr *entities.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Category != entities.GenerationRateLimit {
		t.Errorf("expected rate_limit category, got %s", genErr.Category)
	}
}

func TestOpenAIAdapter_TransportFailure(t *testing.T) {
	adapter := NewOpenAIAdapter("http://127.0.0.1:1", "key", "", time.Second)
	_, err := adapter.Chat(context.Background(), entities.ChatRequest{})

	var genErr *entities.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Category != entities.GenerationNetwork {
		t.Errorf("expected network category, got %s", genErr.Category)
	}
}

func TestOpenAIAdapter_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "x", "choices": []any{}})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "key", "", time.Second)
	_, err := adapter.Chat(context.Background(), entities.ChatRequest{})

	var genErr *entities.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Category != entities.GenerationMalformed {
		t.Errorf("expected malformed category, got %s", genErr.Category)
	}
}

func TestOpenAIAdapter_ChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"id":"x","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"Hello"}}]}` + "\n\n"))
		w.Write([]byte(`data: {"id":"x","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":" world"}}]}` + "\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "key", "", time.Second)
	tokens, err := adapter.ChatStream(context.Background(), entities.ChatRequest{
		Messages: []entities.ChatMessage{{Role: entities.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	var full string
	var done bool
	for tok := range tokens {
		if tok.Error != nil {
			t.Fatalf("unexpected stream error: %v", tok.Error)
		}
		full += tok.Content
		done = done || tok.Done
	}
	if full != "Hello world" {
		t.Errorf("unexpected streamed content %q", full)
	}
	if !done {
		t.Error("stream never signaled done")
	}
}
