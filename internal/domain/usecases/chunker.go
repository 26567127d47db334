// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
// They contain NO framework code, NO external dependencies - just pure business logic.
package usecases

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/eixoai/docchat-go/internal/domain/entities"
)

// ChunkText splits text into overlapping fixed-length spans via a sliding
// window over the rune sequence. Window i starts at i*(chunkSize-overlap) and
// spans chunkSize runes, clipped to the text length; the final chunk may be
// shorter. Identical inputs always produce an identical chunk sequence.
func ChunkText(docID, text string, chunkSize, overlap int) ([]entities.Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, chunk size), got %d", overlap)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	stride := chunkSize - overlap
	var chunks []entities.Chunk
	for index := 0; ; index++ {
		start := index * stride
		if start >= len(runes) {
			break
		}
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, entities.Chunk{
			ID:          chunkID(docID, index),
			DocumentID:  docID,
			Index:       index,
			Text:        string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
		})
	}
	return chunks, nil
}

// NormalizeText collapses all whitespace runs into single spaces so that
// chunking and embedding see consistent input.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// chunkID creates a deterministic ID for a chunk.
func chunkID(docID string, index int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", docID, index)))
	return hex.EncodeToString(hash[:8])
}
