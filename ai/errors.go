package ai

import "errors"

var (
	// ErrEmbeddingBackend indicates a failure calling the embedding service.
	ErrEmbeddingBackend = errors.New("embedding backend error")

	// ErrEmbeddingMismatch indicates the backend returned a different number
	// of vectors than texts submitted.
	ErrEmbeddingMismatch = errors.New("embedding result count mismatch")
)
