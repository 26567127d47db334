// Package loader provides document loading adapters.
package loader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eixoai/docchat-go/internal/domain/entities"
	"github.com/ledongthuc/pdf"
)

// TextLoader loads plain text documents (.txt, .md).
type TextLoader struct{}

// NewTextLoader creates a new text document loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads a text document from the given path.
func (l *TextLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return &entities.Document{
		ID:        DocumentID(path),
		Name:      filepath.Base(path),
		Path:      path,
		Content:   string(content),
		CreatedAt: info.ModTime(),
		UpdatedAt: time.Now(),
	}, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *TextLoader) SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown"}
}

// PDFLoader extracts plain text from PDF documents.
type PDFLoader struct{}

// NewPDFLoader creates a new PDF document loader.
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

// Load reads a PDF and extracts its text content. Scanned PDFs without a
// text layer yield an empty document, which ingestion treats as a no-op.
func (l *PDFLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extracting pdf text from %s: %w", path, err)
	}
	if _, err := buf.ReadFrom(plain); err != nil {
		return nil, fmt.Errorf("reading pdf text from %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return &entities.Document{
		ID:        DocumentID(path),
		Name:      filepath.Base(path),
		Path:      path,
		Content:   buf.String(),
		CreatedAt: info.ModTime(),
		UpdatedAt: time.Now(),
	}, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *PDFLoader) SupportedExtensions() []string {
	return []string{".pdf"}
}

// MultiLoader dispatches to the right loader by file extension.
type MultiLoader struct {
	loaders map[string]interface {
		Load(context.Context, string) (*entities.Document, error)
	}
}

// NewMultiLoader creates a loader that handles multiple file types.
func NewMultiLoader() *MultiLoader {
	text := NewTextLoader()
	return &MultiLoader{
		loaders: map[string]interface {
			Load(context.Context, string) (*entities.Document, error)
		}{
			".txt":      text,
			".md":       text,
			".markdown": text,
			".pdf":      NewPDFLoader(),
		},
	}
}

// Load dispatches to the appropriate loader based on extension.
// Unknown extensions fall back to the text loader.
func (m *MultiLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := m.loaders[ext]
	if !ok {
		l = NewTextLoader()
	}
	return l.Load(ctx, path)
}

// SupportedExtensions returns all supported extensions.
func (m *MultiLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(m.loaders))
	for ext := range m.loaders {
		exts = append(exts, ext)
	}
	return exts
}

// DocumentID creates a deterministic ID for a document path, so that
// re-ingesting the same file replaces its chunks instead of duplicating them
// and a deletion can be mapped back to stored records from the path alone.
func DocumentID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
