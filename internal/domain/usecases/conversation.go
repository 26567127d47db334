package usecases

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/eixoai/docchat-go/internal/domain/entities"
	"github.com/eixoai/docchat-go/internal/domain/ports"
)

// DefaultSystemPrompt is used when no system instructions are configured.
const DefaultSystemPrompt = "You are a helpful assistant that answers questions about documents. " +
	"Use the provided context to answer accurately. " +
	"If the information is not in the context, say so clearly."

// ConversationConfig carries the generation parameters the manager consumes.
// Constructed once at startup and passed in - no runtime environment lookups.
type ConversationConfig struct {
	SystemPrompt string
	Model        string
	Temperature  float32
	MaxTokens    int
	HistoryLimit int // max turns kept when building a prompt
}

// ConversationManager owns one session: it builds generation prompts from
// system instructions, retrieved context and trimmed history, issues the
// generation call and appends results to the history.
//
// Session lifecycle: Empty -> Ready (first successful ingestion) ->
// Chatting (first turn) -> Empty (reset).
type ConversationManager struct {
	mu        sync.Mutex
	retriever *RetrieveUseCase
	ingester  *IngestUseCase
	llm       ports.LLMService
	store     ports.VectorStore
	cfg       ConversationConfig

	history []entities.ChatMessage
	state   entities.SessionState
}

// NewConversationManager creates a manager for a single session.
func NewConversationManager(
	retriever *RetrieveUseCase,
	ingester *IngestUseCase,
	llm ports.LLMService,
	store ports.VectorStore,
	cfg ConversationConfig,
) *ConversationManager {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	return &ConversationManager{
		retriever: retriever,
		ingester:  ingester,
		llm:       llm,
		store:     store,
		cfg:       cfg,
		state:     entities.SessionEmpty,
	}
}

// State returns the current session state.
func (m *ConversationManager) State() entities.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// History returns a copy of the conversation history for rendering.
func (m *ConversationManager) History() []entities.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.ChatMessage, len(m.history))
	copy(out, m.history)
	return out
}

// Ingest runs the write path for one document and moves an empty session to
// Ready once it holds indexed content. Returns the number of chunks stored.
func (m *ConversationManager) Ingest(ctx context.Context, doc *entities.Document) (int, error) {
	count, err := m.ingester.Ingest(ctx, doc)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		m.mu.Lock()
		if m.state == entities.SessionEmpty {
			m.state = entities.SessionReady
		}
		m.mu.Unlock()
	}
	return count, nil
}

// DeleteDocument removes one document's records from the session store.
func (m *ConversationManager) DeleteDocument(ctx context.Context, documentID string) error {
	return m.ingester.Delete(ctx, documentID)
}

// Chat processes one user turn: retrieve context, build the prompt, call the
// generation service and append both turns to history.
//
// A generation failure never escapes as an error: it becomes a synthetic
// assistant turn with a human-readable description and the session stays
// usable. Retrieval failures (model or store unavailable) do propagate -
// they are fatal to the operation in progress.
func (m *ConversationManager) Chat(ctx context.Context, userMessage string) (string, error) {
	retrieved, err := m.retriever.Retrieve(ctx, userMessage)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	req := m.buildRequest(retrieved, userMessage)
	m.mu.Unlock()

	resp, err := m.llm.Chat(ctx, req)
	answer := resp.Content
	if err != nil {
		answer = userFacingGenerationError(err)
		log.Printf("[ERROR] Generation failed, answering with error turn: %v", err)
	}

	m.mu.Lock()
	m.appendTurns(userMessage, answer)
	m.mu.Unlock()
	return answer, nil
}

// ChatStream is the streaming variant of Chat. The full response is appended
// to history once the stream completes; a mid-stream failure appends a
// synthetic assistant turn instead, exactly like Chat.
func (m *ConversationManager) ChatStream(ctx context.Context, userMessage string) (<-chan ports.StreamToken, error) {
	retrieved, err := m.retriever.Retrieve(ctx, userMessage)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	req := m.buildRequest(retrieved, userMessage)
	m.mu.Unlock()

	upstream, err := m.llm.ChatStream(ctx, req)
	if err != nil {
		answer := userFacingGenerationError(err)
		log.Printf("[ERROR] Generation failed, answering with error turn: %v", err)
		m.mu.Lock()
		m.appendTurns(userMessage, answer)
		m.mu.Unlock()

		out := make(chan ports.StreamToken, 1)
		out <- ports.StreamToken{Content: answer, Done: true}
		close(out)
		return out, nil
	}

	out := make(chan ports.StreamToken, 64)
	go func() {
		defer close(out)
		var full string
		for token := range upstream {
			if token.Error != nil {
				answer := userFacingGenerationError(token.Error)
				log.Printf("[ERROR] Generation stream failed: %v", token.Error)
				m.mu.Lock()
				m.appendTurns(userMessage, answer)
				m.mu.Unlock()
				out <- ports.StreamToken{Content: answer, Done: true}
				return
			}
			full += token.Content
			out <- token
			if token.Done {
				break
			}
		}
		m.mu.Lock()
		m.appendTurns(userMessage, full)
		m.mu.Unlock()
	}()
	return out, nil
}

// Reset clears the conversation history and the session's stored vectors.
// If the store clear fails the caller is told exactly which half succeeded.
func (m *ConversationManager) Reset(ctx context.Context) error {
	m.mu.Lock()
	m.history = nil
	m.state = entities.SessionEmpty
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		log.Printf("[ERROR] Reset: store clear failed: %v", err)
		return &entities.ResetError{HistoryCleared: true, StoreCleared: false, Err: err}
	}
	log.Printf("[INFO] Session reset: history and store cleared")
	return nil
}

// buildRequest assembles system instructions + trimmed history + the new user
// turn (with retrieved context folded in). Caller holds m.mu.
func (m *ConversationManager) buildRequest(retrieved *entities.RetrievedContext, userMessage string) entities.ChatRequest {
	messages := make([]entities.ChatMessage, 0, len(m.history)+2)
	messages = append(messages, entities.ChatMessage{
		Role:    entities.RoleSystem,
		Content: m.cfg.SystemPrompt,
	})

	history := m.history
	if len(history) > m.cfg.HistoryLimit {
		history = history[len(history)-m.cfg.HistoryLimit:] // oldest turns dropped first
	}
	messages = append(messages, history...)

	content := userMessage
	if !retrieved.Empty() {
		content = fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", FormatContext(retrieved), userMessage)
	}
	messages = append(messages, entities.ChatMessage{
		Role:    entities.RoleUser,
		Content: content,
	})

	return entities.ChatRequest{
		Model:       m.cfg.Model,
		Messages:    messages,
		Temperature: m.cfg.Temperature,
		MaxTokens:   m.cfg.MaxTokens,
	}
}

// appendTurns records the exchanged turns. Caller holds m.mu.
// Note the history keeps the plain user message, not the context-expanded one.
func (m *ConversationManager) appendTurns(userMessage, answer string) {
	m.history = append(m.history,
		entities.ChatMessage{Role: entities.RoleUser, Content: userMessage},
		entities.ChatMessage{Role: entities.RoleAssistant, Content: answer},
	)
	m.state = entities.SessionChatting
}

// userFacingGenerationError maps failure categories to the strings shown in
// the chat. The taxonomy stays the single source of truth; no ad hoc
// formatting at call sites.
func userFacingGenerationError(err error) string {
	var genErr *entities.GenerationError
	if !errors.As(err, &genErr) {
		return fmt.Sprintf("Sorry, I could not generate a response: %v", err)
	}
	switch genErr.Category {
	case entities.GenerationAuth:
		return "Sorry, the generation service rejected the configured credentials. Check the API key and restart."
	case entities.GenerationRateLimit:
		return "Sorry, the generation service is rate limiting requests. Wait a moment and try again."
	case entities.GenerationNetwork:
		return "Sorry, the generation service could not be reached. Check the connection and try again."
	case entities.GenerationMalformed:
		return "Sorry, the generation service rejected the request as malformed."
	default:
		return fmt.Sprintf("Sorry, I could not generate a response: %v", genErr.Err)
	}
}
