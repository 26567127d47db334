// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import "time"

// Document represents a source document (PDF, TXT, MD).
// Immutable once ingested; it exists only for the duration of the
// chunk -> embed -> upsert pipeline.
type Document struct {
	ID        string
	Name      string
	Path      string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chunk is a bounded contiguous span of a document's text, the unit of
// embedding and retrieval. Offsets are rune positions into the normalized
// document content; EndOffset-StartOffset never exceeds the chunk size.
type Chunk struct {
	ID          string
	DocumentID  string
	Index       int // Position in document
	Text        string
	StartOffset int
	EndOffset   int
}

// VectorRecord is what the vector store persists per chunk. Once a record
// is stored, the Chunk that produced it may be discarded.
type VectorRecord struct {
	ChunkID    string
	DocumentID string
	Vector     []float32
	Text       string
	Metadata   map[string]string
}

// ScoredChunk is one retrieval hit: stored text plus its cosine similarity
// against the query vector.
type ScoredChunk struct {
	Record VectorRecord
	Score  float64
}

// RetrievedContext is the ranked, budget-bounded set of chunks assembled for
// one query. It is ephemeral - discarded after prompt assembly.
type RetrievedContext struct {
	Chunks []ScoredChunk
	Query  string
}

// Empty reports whether retrieval produced no usable context.
// An empty store and a store that was never written to are indistinguishable here.
func (c *RetrievedContext) Empty() bool {
	return c == nil || len(c.Chunks) == 0
}

// Roles for conversation turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a conversation turn.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatRequest is the generation-service request contract: model parameters
// plus the ordered message list.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int
}

// ChatResponse is the generation-service reply.
type ChatResponse struct {
	Content string
}

// SessionState tracks where a conversation session is in its lifecycle.
type SessionState int

const (
	SessionEmpty    SessionState = iota // nothing ingested, no turns
	SessionReady                        // at least one successful ingestion
	SessionChatting                     // at least one turn exchanged
)

func (s SessionState) String() string {
	switch s {
	case SessionReady:
		return "ready"
	case SessionChatting:
		return "chatting"
	default:
		return "empty"
	}
}
