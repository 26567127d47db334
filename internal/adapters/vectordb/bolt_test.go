package vectordb

import (
	"context"
	"testing"

	"github.com/eixoai/docchat-go/internal/domain/entities"
)

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	vec := []float32{0.5, 0.5}

	store, err := NewBoltStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store.Upsert(ctx, []entities.VectorRecord{record("first", "d1", vec)})
	store.Upsert(ctx, []entities.VectorRecord{record("second", "d1", vec)})
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewBoltStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("count after reopen: n=%d err=%v", n, err)
	}
	hits, err := reopened.Query(ctx, vec, 10)
	if err != nil || len(hits) != 2 {
		t.Fatalf("query after reopen: hits=%v err=%v", hits, err)
	}
	if hits[0].Record.ChunkID != "first" || hits[1].Record.ChunkID != "second" {
		t.Errorf("tie-break order lost across reopen: %q, %q",
			hits[0].Record.ChunkID, hits[1].Record.ChunkID)
	}
}

func TestBoltStore_SeqContinuesAfterReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	vec := []float32{0.5, 0.5}

	store, err := NewBoltStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store.Upsert(ctx, []entities.VectorRecord{record("first", "d1", vec)})
	store.Close()

	reopened, err := NewBoltStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	// A record inserted after reopen still sorts behind the original one.
	reopened.Upsert(ctx, []entities.VectorRecord{record("second", "d1", vec)})

	hits, err := reopened.Query(ctx, vec, 10)
	if err != nil || len(hits) != 2 {
		t.Fatalf("query: hits=%v err=%v", hits, err)
	}
	if hits[0].Record.ChunkID != "first" {
		t.Errorf("record inserted after reopen must not jump ahead: %q first", hits[0].Record.ChunkID)
	}
}
