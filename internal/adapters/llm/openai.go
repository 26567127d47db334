package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/eixoai/docchat-go/internal/domain/entities"
	"github.com/eixoai/docchat-go/internal/domain/ports"
	openai "github.com/sashabaranov/go-openai"
)

// GroqBaseURL is the OpenAI-compatible endpoint of the Groq API.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIAdapter implements ports.LLMService against any OpenAI-compatible
// chat completions endpoint (OpenAI, Groq, and friends).
type OpenAIAdapter struct {
	client       *openai.Client
	defaultModel string
}

// NewOpenAIAdapter creates a chat adapter for an OpenAI-compatible API.
func NewOpenAIAdapter(baseURL, apiKey, defaultModel string, timeout time.Duration) *OpenAIAdapter {
	if defaultModel == "" {
		defaultModel = "llama-3.3-70b-versatile"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIAdapter{
		client:       openai.NewClientWithConfig(cfg),
		defaultModel: defaultModel,
	}
}

func (a *OpenAIAdapter) buildRequest(req entities.ChatRequest, stream bool) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = a.defaultModel
	}
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}
}

// Chat performs a single request/response generation call.
func (a *OpenAIAdapter) Chat(ctx context.Context, req entities.ChatRequest) (entities.ChatResponse, error) {
	resp, err := a.client.CreateChatCompletion(ctx, a.buildRequest(req, false))
	if err != nil {
		return entities.ChatResponse{}, categorizeOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return entities.ChatResponse{}, entities.NewGenerationError(entities.GenerationMalformed,
			errors.New("response contained no choices"))
	}
	return entities.ChatResponse{Content: resp.Choices[0].Message.Content}, nil
}

// ChatStream produces a streaming response.
func (a *OpenAIAdapter) ChatStream(ctx context.Context, req entities.ChatRequest) (<-chan ports.StreamToken, error) {
	stream, err := a.client.CreateChatCompletionStream(ctx, a.buildRequest(req, true))
	if err != nil {
		return nil, categorizeOpenAIError(err)
	}

	ch := make(chan ports.StreamToken, 100)
	go func() {
		defer close(ch)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				ch <- ports.StreamToken{Done: true}
				return
			}
			if err != nil {
				ch <- ports.StreamToken{Done: true, Error: categorizeOpenAIError(err)}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			ch <- ports.StreamToken{Content: resp.Choices[0].Delta.Content}
		}
	}()
	return ch, nil
}

// categorizeOpenAIError maps client errors onto the generation failure
// taxonomy using the API error status when one is present.
func categorizeOpenAIError(err error) *entities.GenerationError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusToGenerationError(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusToGenerationError(reqErr.HTTPStatusCode)
	}
	// No HTTP response at all: transport failure.
	return entities.NewGenerationError(entities.GenerationNetwork, err)
}
