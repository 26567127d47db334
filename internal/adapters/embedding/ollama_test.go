package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eixoai/docchat-go/internal/domain/entities"
)

func TestOllamaAdapter_Embed(t *testing.T) {
	var gotModel, gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel, gotPrompt = req.Model, req.Prompt
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	adapter := NewOllamaAdapter(server.URL, "nomic-embed-text", 5*time.Second)
	emb, err := adapter.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(emb) != 3 {
		t.Errorf("expected 3 dimensions, got %d", len(emb))
	}
	if gotModel != "nomic-embed-text" || gotPrompt != "hello world" {
		t.Errorf("wrong request: model=%q prompt=%q", gotModel, gotPrompt)
	}
}

func TestOllamaAdapter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := NewOllamaAdapter(server.URL, "", time.Second)
	_, err := adapter.Embed(context.Background(), "text")
	if !errors.Is(err, entities.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestOllamaAdapter_Unreachable(t *testing.T) {
	adapter := NewOllamaAdapter("http://127.0.0.1:1", "", time.Second)
	_, err := adapter.Embed(context.Background(), "text")
	if !errors.Is(err, entities.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestOllamaAdapter_EmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{})
	}))
	defer server.Close()

	adapter := NewOllamaAdapter(server.URL, "", time.Second)
	_, err := adapter.Embed(context.Background(), "text")
	if !errors.Is(err, entities.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable for empty embedding, got %v", err)
	}
}

func TestOllamaAdapter_EmbedBatchPreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		// Encode the prompt length so each text gets a distinguishable vector.
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{float32(len(req.Prompt))}})
	}))
	defer server.Close()

	adapter := NewOllamaAdapter(server.URL, "", time.Second)
	embs, err := adapter.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if len(embs) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(embs))
	}
	for i, want := range []float32{1, 2, 3} {
		if embs[i][0] != want {
			t.Errorf("embedding %d: got %v, want %v", i, embs[i][0], want)
		}
	}
}

func TestOllamaAdapter_Defaults(t *testing.T) {
	adapter := NewOllamaAdapter("", "", 0)
	if adapter.baseURL != "http://localhost:11434" {
		t.Errorf("unexpected default base URL %q", adapter.baseURL)
	}
	if adapter.model != "nomic-embed-text" {
		t.Errorf("unexpected default model %q", adapter.model)
	}
	if adapter.client.Timeout != 60*time.Second {
		t.Errorf("unexpected default timeout %v", adapter.client.Timeout)
	}
}
