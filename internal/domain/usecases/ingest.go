package usecases

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/eixoai/docchat-go/internal/domain/entities"
	"github.com/eixoai/docchat-go/internal/domain/ports"
)

// IngestUseCase handles document ingestion into the vector store.
// Single Responsibility: Only the chunk -> embed -> upsert write path.
type IngestUseCase struct {
	embedder     ports.EmbeddingService
	vectorStore  ports.VectorStore
	chunkSize    int
	chunkOverlap int
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
// Dependency Injection: Adapters are passed in, not created here.
func NewIngestUseCase(
	embedder ports.EmbeddingService,
	vectorStore ports.VectorStore,
	chunkSize, chunkOverlap int,
) *IngestUseCase {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 100
		if chunkOverlap >= chunkSize {
			chunkOverlap = chunkSize / 4
		}
	}
	return &IngestUseCase{
		embedder:     embedder,
		vectorStore:  vectorStore,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Ingest processes a document: normalizes and chunks its text, embeds the
// chunks and persists the resulting records. Returns the number of chunks
// stored. An empty document is a recoverable no-op that contributes zero
// chunks.
func (uc *IngestUseCase) Ingest(ctx context.Context, doc *entities.Document) (int, error) {
	content := NormalizeText(doc.Content)
	if content == "" {
		log.Printf("[WARN] Document %s has no extractable content, skipping", doc.Name)
		return 0, nil
	}

	chunks, err := ChunkText(doc.ID, content, uc.chunkSize, uc.chunkOverlap)
	if err != nil {
		return 0, fmt.Errorf("chunking document %s: %w", doc.ID, err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := uc.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}

	records := make([]entities.VectorRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = entities.VectorRecord{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Vector:     embeddings[i],
			Text:       chunk.Text,
			Metadata: map[string]string{
				"source": doc.Name,
				"chunk":  strconv.Itoa(chunk.Index),
				"start":  strconv.Itoa(chunk.StartOffset),
				"end":    strconv.Itoa(chunk.EndOffset),
			},
		}
	}

	if err := uc.vectorStore.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("storing %d records: %w", len(records), err)
	}

	log.Printf("[INFO] Ingested %s: %d chunks", doc.Name, len(records))
	return len(records), nil
}

// Delete removes a document's records from the store.
func (uc *IngestUseCase) Delete(ctx context.Context, documentID string) error {
	return uc.vectorStore.DeleteDocument(ctx, documentID)
}
