// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"

	"github.com/eixoai/docchat-go/internal/domain/entities"
)

// EmbeddingService maps text spans (chunks or queries) to fixed-dimension
// dense vectors. Deterministic per model version: same text, same vector.
type EmbeddingService interface {
	// Embed generates a vector embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, order-preserving.
	// Batching is an optimization only: results must equal sequential
	// single-text calls.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists chunk vectors and supports similarity search.
// One store instance is scoped to one session; no hidden shared state.
type VectorStore interface {
	// Upsert saves records, idempotent by ChunkID. Re-upserting an id
	// replaces its vector/text/metadata but keeps its insertion rank.
	// Writes are durable before Upsert returns.
	Upsert(ctx context.Context, records []entities.VectorRecord) error

	// Query returns up to topK records ordered by descending cosine
	// similarity. Equal scores preserve insertion order.
	Query(ctx context.Context, vector []float32, topK int) ([]entities.ScoredChunk, error)

	// DeleteDocument removes all records belonging to a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Clear removes all records; subsequent queries return empty results.
	Clear(ctx context.Context) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying storage.
	Close() error
}

// LLMService issues generation requests against an external model.
type LLMService interface {
	// Chat performs a single request/response generation call. Failures are
	// reported as *entities.GenerationError.
	Chat(ctx context.Context, req entities.ChatRequest) (entities.ChatResponse, error)

	// ChatStream produces a streaming response for real-time UIs.
	ChatStream(ctx context.Context, req entities.ChatRequest) (<-chan StreamToken, error)
}

// StreamToken is a single token in a streaming generation response.
type StreamToken struct {
	Content string
	Done    bool
	Error   error
}

// DocumentLoader reads and parses documents from disk.
type DocumentLoader interface {
	// Load reads a document from the given path.
	Load(ctx context.Context, path string) (*entities.Document, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
