package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/eixoai/docchat-go/internal/domain/entities"
	"github.com/eixoai/docchat-go/internal/domain/ports"
)

// RetrieveUseCase turns a user query into a ranked, budget-bounded context.
type RetrieveUseCase struct {
	embedder    ports.EmbeddingService
	vectorStore ports.VectorStore
	topK        int
	maxContext  int // context budget in runes
}

// NewRetrieveUseCase creates a RetrieveUseCase with injected dependencies.
func NewRetrieveUseCase(
	embedder ports.EmbeddingService,
	vectorStore ports.VectorStore,
	topK, maxContextChars int,
) *RetrieveUseCase {
	if topK <= 0 {
		topK = 5
	}
	if maxContextChars <= 0 {
		maxContextChars = 4000
	}
	return &RetrieveUseCase{
		embedder:    embedder,
		vectorStore: vectorStore,
		topK:        topK,
		maxContext:  maxContextChars,
	}
}

// Retrieve embeds the query, runs similarity search and greedily packs whole
// chunks in ranked order until adding the next one would exceed the context
// budget. An empty store yields an empty context and no error - the caller
// answers without document context in that case.
func (uc *RetrieveUseCase) Retrieve(ctx context.Context, query string) (*entities.RetrievedContext, error) {
	query = NormalizeText(query)
	if query == "" {
		return &entities.RetrievedContext{}, nil
	}

	embedding, err := uc.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := uc.vectorStore.Query(ctx, embedding, uc.topK)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}

	retrieved := &entities.RetrievedContext{Query: query}
	used := 0
	for _, r := range results {
		size := len([]rune(r.Record.Text))
		if used+size > uc.maxContext {
			break // never truncate a chunk mid-text
		}
		retrieved.Chunks = append(retrieved.Chunks, r)
		used += size
	}
	return retrieved, nil
}

// Search returns the raw ranked results without context budgeting.
// Used by the chunk-tracing API.
func (uc *RetrieveUseCase) Search(ctx context.Context, query string) ([]entities.ScoredChunk, error) {
	embedding, err := uc.embedder.Embed(ctx, NormalizeText(query))
	if err != nil {
		return nil, err
	}
	return uc.vectorStore.Query(ctx, embedding, uc.topK)
}

// FormatContext renders a retrieved context as the text block handed to the
// generation prompt, one source-attributed section per chunk.
func FormatContext(retrieved *entities.RetrievedContext) string {
	if retrieved.Empty() {
		return ""
	}
	var sb strings.Builder
	for i, c := range retrieved.Chunks {
		source := c.Record.Metadata["source"]
		if source == "" {
			source = c.Record.DocumentID
		}
		fmt.Fprintf(&sb, "[%d] Source: %s (relevance %.2f)\n%s", i+1, source, c.Score, c.Record.Text)
		if i < len(retrieved.Chunks)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
