package vectordb

import (
	"context"
	"sort"
	"sync"

	"github.com/eixoai/docchat-go/internal/domain/entities"
)

// InMemoryStore keeps records in process memory. It honors the same upsert
// and tie-break semantics as the persistent stores, which makes it the store
// of choice for tests and throwaway sessions. Nothing survives a restart.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []entities.VectorRecord // insertion order
	index   map[string]int          // chunkID -> position in records
}

// NewInMemoryStore creates an empty in-memory vector store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{index: make(map[string]int)}
}

// Upsert saves records; replacing an existing chunk keeps its insertion rank.
func (s *InMemoryStore) Upsert(ctx context.Context, records []entities.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if pos, ok := s.index[r.ChunkID]; ok {
			s.records[pos] = r
			continue
		}
		s.index[r.ChunkID] = len(s.records)
		s.records = append(s.records, r)
	}
	return nil
}

// Query returns up to topK records by descending cosine similarity with
// insertion-order tie-break.
func (s *InMemoryStore) Query(ctx context.Context, vector []float32, topK int) ([]entities.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]entities.ScoredChunk, 0, len(s.records))
	for _, r := range s.records {
		results = append(results, entities.ScoredChunk{
			Record: r,
			Score:  CosineSimilarity(vector, r.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteDocument removes all records for a document.
func (s *InMemoryStore) DeleteDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, r := range s.records {
		if r.DocumentID != documentID {
			kept = append(kept, r)
		}
	}
	s.records = kept
	s.index = make(map[string]int, len(s.records))
	for i, r := range s.records {
		s.index[r.ChunkID] = i
	}
	return nil
}

// Clear removes all records.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.index = make(map[string]int)
	return nil
}

// Count returns the number of stored records.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
