// Package llm provides generation service adapters.
// Clean Architecture: Adapters implementing ports.LLMService.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/eixoai/docchat-go/internal/domain/entities"
	"github.com/eixoai/docchat-go/internal/domain/ports"
)

// OllamaAdapter implements ports.LLMService using the Ollama chat API.
type OllamaAdapter struct {
	baseURL      string
	defaultModel string
	client       *http.Client
}

// NewOllamaAdapter creates a new Ollama chat adapter.
func NewOllamaAdapter(baseURL, defaultModel string, timeout time.Duration) *OllamaAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if defaultModel == "" {
		defaultModel = "llama3.2"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second // longer timeout for streaming
	}
	return &OllamaAdapter{
		baseURL:      baseURL,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: timeout},
	}
}

// ollamaChatRequest is the Ollama chat API request.
type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  ollamaChatOptions   `json:"options"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaChatResponse is one Ollama chat API response object.
type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

func (a *OllamaAdapter) buildRequest(req entities.ChatRequest, stream bool) ollamaChatRequest {
	model := req.Model
	if model == "" {
		model = a.defaultModel
	}
	messages := make([]ollamaChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = ollamaChatMessage{Role: m.Role, Content: m.Content}
	}
	return ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
		Options: ollamaChatOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
}

// Chat performs a single request/response generation call.
func (a *OllamaAdapter) Chat(ctx context.Context, req entities.ChatRequest) (entities.ChatResponse, error) {
	jsonData, err := json.Marshal(a.buildRequest(req, false))
	if err != nil {
		return entities.ChatResponse{}, entities.NewGenerationError(entities.GenerationMalformed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return entities.ChatResponse{}, entities.NewGenerationError(entities.GenerationMalformed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return entities.ChatResponse{}, entities.NewGenerationError(entities.GenerationNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entities.ChatResponse{}, statusToGenerationError(resp.StatusCode)
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return entities.ChatResponse{}, entities.NewGenerationError(entities.GenerationMalformed, fmt.Errorf("decoding response: %w", err))
	}
	return entities.ChatResponse{Content: chatResp.Message.Content}, nil
}

// ChatStream produces a streaming response via Ollama's NDJSON stream.
func (a *OllamaAdapter) ChatStream(ctx context.Context, req entities.ChatRequest) (<-chan ports.StreamToken, error) {
	jsonData, err := json.Marshal(a.buildRequest(req, true))
	if err != nil {
		return nil, entities.NewGenerationError(entities.GenerationMalformed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, entities.NewGenerationError(entities.GenerationMalformed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, entities.NewGenerationError(entities.GenerationNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, statusToGenerationError(resp.StatusCode)
	}

	ch := make(chan ports.StreamToken, 100)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				ch <- ports.StreamToken{Done: true, Error: entities.NewGenerationError(entities.GenerationNetwork, ctx.Err())}
				return
			default:
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var chunk ollamaChatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue // skip malformed lines
			}
			ch <- ports.StreamToken{Content: chunk.Message.Content, Done: chunk.Done}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			ch <- ports.StreamToken{Done: true, Error: entities.NewGenerationError(entities.GenerationNetwork, err)}
		}
	}()
	return ch, nil
}

// statusToGenerationError categorizes an HTTP failure status.
func statusToGenerationError(status int) *entities.GenerationError {
	err := fmt.Errorf("generation service returned status %d", status)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return entities.NewGenerationError(entities.GenerationAuth, err)
	case status == http.StatusTooManyRequests:
		return entities.NewGenerationError(entities.GenerationRateLimit, err)
	case status >= 500:
		return entities.NewGenerationError(entities.GenerationNetwork, err)
	default:
		return entities.NewGenerationError(entities.GenerationMalformed, err)
	}
}
