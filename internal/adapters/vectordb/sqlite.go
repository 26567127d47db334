// Package vectordb provides vector store adapters.
// Clean Architecture: Adapters implementing ports.VectorStore.
package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/eixoai/docchat-go/internal/domain/entities"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements ports.VectorStore with SQLite-based persistence.
// Brute-force cosine search over all stored vectors; fine at session scale.
// Records survive process restart until explicitly cleared, and every upsert
// is committed before the call returns.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a persistent vector store under dataPath.
func NewSQLiteStore(dataPath string) (*SQLiteStore, error) {
	if dataPath == "" {
		dataPath = "./data"
	}
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %v", entities.ErrStoreUnavailable, err)
	}

	dbPath := filepath.Join(dataPath, "vectors.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", entities.ErrStoreUnavailable, err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: initializing schema: %v", entities.ErrStoreUnavailable, err)
	}
	return store, nil
}

// initSchema creates the records table. The seq column records first
// insertion order and survives replacement, giving the deterministic
// tie-break on equal scores.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		chunk_id    TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		text        TEXT NOT NULL,
		embedding   BLOB NOT NULL,
		metadata    TEXT,
		seq         INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_document_id ON records(document_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Upsert saves records, replacing vector/text/metadata on chunk_id conflict
// while keeping the original insertion rank.
func (s *SQLiteStore) Upsert(ctx context.Context, records []entities.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %v", entities.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (chunk_id, document_id, text, embedding, metadata, seq)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM records))
		ON CONFLICT(chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			text        = excluded.text,
			embedding   = excluded.embedding,
			metadata    = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("%w: preparing statement: %v", entities.ErrStoreUnavailable, err)
	}
	defer stmt.Close()

	for _, r := range records {
		embeddingJSON, err := json.Marshal(r.Vector)
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}
		metadataJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.ChunkID, r.DocumentID, r.Text, embeddingJSON, metadataJSON); err != nil {
			return fmt.Errorf("%w: inserting record %s: %v", entities.ErrStoreUnavailable, r.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing upsert: %v", entities.ErrStoreUnavailable, err)
	}
	return nil
}

// Query returns up to topK records by descending cosine similarity.
// Rows are loaded in seq order, so a stable sort preserves insertion order
// between equal scores.
func (s *SQLiteStore) Query(ctx context.Context, vector []float32, topK int) ([]entities.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, text, embedding, metadata
		FROM records
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying records: %v", entities.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var results []entities.ScoredChunk
	for rows.Next() {
		var record entities.VectorRecord
		var embeddingJSON, metadataJSON []byte

		if err := rows.Scan(&record.ChunkID, &record.DocumentID, &record.Text, &embeddingJSON, &metadataJSON); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %v", entities.ErrStoreUnavailable, err)
		}
		if err := json.Unmarshal(embeddingJSON, &record.Vector); err != nil {
			continue // skip corrupted embeddings
		}
		if len(metadataJSON) > 0 {
			_ = json.Unmarshal(metadataJSON, &record.Metadata)
		}

		results = append(results, entities.ScoredChunk{
			Record: record,
			Score:  CosineSimilarity(vector, record.Vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading rows: %v", entities.ErrStoreUnavailable, err)
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
func (s *SQLiteStore) DeleteDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("%w: deleting document %s: %v", entities.ErrStoreUnavailable, documentID, err)
	}
	return nil
}

// Clear removes all records from the store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("%w: clearing store: %v", entities.ErrStoreUnavailable, err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting records: %v", entities.ErrStoreUnavailable, err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
