package vectordb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/eixoai/docchat-go/internal/domain/entities"
)

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewSQLiteStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	vec := []float32{0.2, 0.8}
	if err := store.Upsert(ctx, []entities.VectorRecord{record("c1", "d1", vec)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 record after reopen, got %d", n)
	}
	hits, err := reopened.Query(ctx, vec, 1)
	if err != nil || len(hits) != 1 {
		t.Fatalf("query after reopen: hits=%v err=%v", hits, err)
	}
	if hits[0].Record.Text != "text for c1" {
		t.Errorf("record content lost across reopen: %+v", hits[0].Record)
	}
}

func TestSQLiteStore_InsertionOrderSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	vec := []float32{0.5, 0.5}

	store, err := NewSQLiteStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store.Upsert(ctx, []entities.VectorRecord{record("first", "d1", vec)})
	store.Upsert(ctx, []entities.VectorRecord{record("second", "d1", vec)})
	store.Close()

	reopened, err := NewSQLiteStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	hits, err := reopened.Query(ctx, vec, 10)
	if err != nil || len(hits) != 2 {
		t.Fatalf("query: hits=%v err=%v", hits, err)
	}
	if hits[0].Record.ChunkID != "first" || hits[1].Record.ChunkID != "second" {
		t.Errorf("tie-break order lost across reopen: %q, %q",
			hits[0].Record.ChunkID, hits[1].Record.ChunkID)
	}
}

func TestSQLiteStore_CreatesDataDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewSQLiteStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(dir, "vectors.db")); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}
