package vectorindex

import "errors"

var (
	// ErrAlreadyInitialized is returned when initializing over an existing
	// index without force.
	ErrAlreadyInitialized = errors.New("vector index already initialized")

	// ErrNotInitialized is returned by operations that need an existing
	// index when none has been built yet.
	ErrNotInitialized = errors.New("vector index not initialized")

	// ErrStoreRequired is returned when a raw store is not provided.
	ErrStoreRequired = errors.New("raw store required")

	// ErrEmbedderRequired is returned when no embedding backend is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidBatchRef is returned when a caller-supplied batch reference
	// is not of the form "{source_type}/{batch_id}".
	ErrInvalidBatchRef = errors.New("invalid batch reference")
)
