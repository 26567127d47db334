package entities

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline. Adapters wrap these so usecases can
// classify failures with errors.Is without knowing adapter internals.
var (
	// ErrModelUnavailable means the embedding model could not be loaded or
	// reached. Fatal to the operation in progress; not retried silently.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrStoreUnavailable means vector persistence failed (I/O, permissions).
	// Recovery path is recreating the store and re-ingesting.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrEmptyDocument means ingested text had no extractable content.
	// Recoverable no-op: the document contributes zero chunks.
	ErrEmptyDocument = errors.New("document has no extractable content")
)

// GenerationCategory classifies why a generation call failed.
type GenerationCategory string

const (
	GenerationAuth      GenerationCategory = "auth"
	GenerationRateLimit GenerationCategory = "rate_limit"
	GenerationNetwork   GenerationCategory = "network"
	GenerationMalformed GenerationCategory = "malformed"
)

// GenerationError is any failure of the external generation call. It never
// crashes a session: the conversation manager converts it into a visible
// assistant turn.
type GenerationError struct {
	Category GenerationCategory
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Category, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewGenerationError wraps err with a failure category.
func NewGenerationError(category GenerationCategory, err error) *GenerationError {
	return &GenerationError{Category: category, Err: err}
}

// ResetError reports a partially failed session reset. Exactly which half
// failed is visible to the caller - partial success is never reported as
// full success.
type ResetError struct {
	HistoryCleared bool
	StoreCleared   bool
	Err            error
}

func (e *ResetError) Error() string {
	switch {
	case e.HistoryCleared && !e.StoreCleared:
		return fmt.Sprintf("reset incomplete: history cleared, store clear failed: %v", e.Err)
	case !e.HistoryCleared && e.StoreCleared:
		return fmt.Sprintf("reset incomplete: store cleared, history clear failed: %v", e.Err)
	default:
		return fmt.Sprintf("reset failed: %v", e.Err)
	}
}

func (e *ResetError) Unwrap() error { return e.Err }
