package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestTextLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("some document content"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewTextLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if doc.Content != "some document content" {
		t.Errorf("unexpected content %q", doc.Content)
	}
	if doc.Name != "notes.txt" {
		t.Errorf("unexpected name %q", doc.Name)
	}
	if doc.ID == "" {
		t.Error("document must get an ID")
	}
}

func TestTextLoader_Missing(t *testing.T) {
	_, err := NewTextLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMultiLoader_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readme.MD")
	if err := os.WriteFile(path, []byte("# title"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Extension matching is case-insensitive.
	doc, err := NewMultiLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if doc.Content != "# title" {
		t.Errorf("unexpected content %q", doc.Content)
	}
}

func TestMultiLoader_UnknownExtensionFallsBackToText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.log")
	if err := os.WriteFile(path, []byte("log line"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewMultiLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if doc.Content != "log line" {
		t.Errorf("unexpected content %q", doc.Content)
	}
}

func TestDocumentID_Deterministic(t *testing.T) {
	a := DocumentID("/docs/a.txt")
	b := DocumentID("/docs/a.txt")
	c := DocumentID("/docs/b.txt")

	if a != b {
		t.Errorf("same path must give same ID: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("different paths must give different IDs: %q", a)
	}
	if len(a) != 16 {
		t.Errorf("unexpected ID length %d", len(a))
	}
}
