package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/eixoai/docchat-go/internal/domain/entities"
	bolt "go.etcd.io/bbolt"
)

var (
	boltRecordsBucket = []byte("records")
	boltMetaBucket    = []byte("meta")
	boltSeqKey        = []byte("next_seq")
)

// boltRecord is the stored representation: the record plus its first
// insertion rank, which survives replacement.
type boltRecord struct {
	Record entities.VectorRecord `json:"record"`
	Seq    uint64                `json:"seq"`
}

// BoltStore implements ports.VectorStore on top of a bbolt file. A single
// Update transaction per Upsert gives the same durable-before-return
// guarantee as the SQLite backend without a CGO dependency.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) a bbolt-backed vector store under dataPath.
func NewBoltStore(dataPath string) (*BoltStore, error) {
	if dataPath == "" {
		dataPath = "./data"
	}
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %v", entities.ErrStoreUnavailable, err)
	}

	db, err := bolt.Open(filepath.Join(dataPath, "vectors.bolt"), 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", entities.ErrStoreUnavailable, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(boltRecordsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(boltMetaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: initializing buckets: %v", entities.ErrStoreUnavailable, err)
	}
	return &BoltStore{db: db}, nil
}

// Upsert saves records in one transaction, keeping the original seq of
// replaced chunks.
func (s *BoltStore) Upsert(ctx context.Context, records []entities.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltRecordsBucket)
		meta := tx.Bucket(boltMetaBucket)

		nextSeq := uint64(1)
		if raw := meta.Get(boltSeqKey); raw != nil {
			if err := json.Unmarshal(raw, &nextSeq); err != nil {
				return fmt.Errorf("decoding seq counter: %w", err)
			}
		}

		for _, r := range records {
			stored := boltRecord{Record: r, Seq: nextSeq}
			if raw := bucket.Get([]byte(r.ChunkID)); raw != nil {
				var prev boltRecord
				if err := json.Unmarshal(raw, &prev); err == nil {
					stored.Seq = prev.Seq
				}
			} else {
				nextSeq++
			}

			data, err := json.Marshal(stored)
			if err != nil {
				return fmt.Errorf("encoding record %s: %w", r.ChunkID, err)
			}
			if err := bucket.Put([]byte(r.ChunkID), data); err != nil {
				return err
			}
		}

		seqData, err := json.Marshal(nextSeq)
		if err != nil {
			return err
		}
		return meta.Put(boltSeqKey, seqData)
	})
	if err != nil {
		return fmt.Errorf("%w: upserting records: %v", entities.ErrStoreUnavailable, err)
	}
	return nil
}

// Query returns up to topK records by descending cosine similarity, breaking
// ties by insertion order.
func (s *BoltStore) Query(ctx context.Context, vector []float32, topK int) ([]entities.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	type scored struct {
		chunk entities.ScoredChunk
		seq   uint64
	}
	var results []scored

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(boltRecordsBucket).ForEach(func(_, raw []byte) error {
			var stored boltRecord
			if err := json.Unmarshal(raw, &stored); err != nil {
				return nil // skip corrupted records
			}
			results = append(results, scored{
				chunk: entities.ScoredChunk{
					Record: stored.Record,
					Score:  CosineSimilarity(vector, stored.Record.Vector),
				},
				seq: stored.Seq,
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying records: %v", entities.ErrStoreUnavailable, err)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].chunk.Score != results[j].chunk.Score {
			return results[i].chunk.Score > results[j].chunk.Score
		}
		return results[i].seq < results[j].seq
	})
	if len(results) > topK {
		results = results[:topK]
	}

	out := make([]entities.ScoredChunk, len(results))
	for i, r := range results {
		out[i] = r.chunk
	}
	return out, nil
}

// DeleteDocument removes all records for a document.
func (s *BoltStore) DeleteDocument(ctx context.Context, documentID string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltRecordsBucket)
		var doomed [][]byte
		err := bucket.ForEach(func(k, raw []byte) error {
			var stored boltRecord
			if err := json.Unmarshal(raw, &stored); err != nil {
				return nil
			}
			if stored.Record.DocumentID == documentID {
				doomed = append(doomed, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range doomed {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: deleting document %s: %v", entities.ErrStoreUnavailable, documentID, err)
	}
	return nil
}

// Clear removes all records and resets the seq counter.
func (s *BoltStore) Clear(ctx context.Context) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(boltRecordsBucket); err != nil {
			return err
		}
		if _, err := tx.CreateBucket(boltRecordsBucket); err != nil {
			return err
		}
		return tx.Bucket(boltMetaBucket).Delete(boltSeqKey)
	})
	if err != nil {
		return fmt.Errorf("%w: clearing store: %v", entities.ErrStoreUnavailable, err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *BoltStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(boltRecordsBucket).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: counting records: %v", entities.ErrStoreUnavailable, err)
	}
	return count, nil
}

// Close closes the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
