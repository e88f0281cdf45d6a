package ingest

import "errors"

var (
	// ErrStoreRequired is returned when a raw store is not provided.
	ErrStoreRequired = errors.New("raw store required")

	// ErrClientRequired is returned when a source API client is needed but
	// was not configured.
	ErrClientRequired = errors.New("source client not configured")

	// ErrSourceUnavailable indicates the external source could not be
	// reached or refused the request before any item was processed.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSelectorMismatch indicates a selector of the wrong source type was
	// passed to an ingestor.
	ErrSelectorMismatch = errors.New("selector does not match ingestor source type")

	// ErrUnsupportedFile indicates an upload with a file type the extractor
	// does not handle.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrEmptySelector indicates a selector with no scope set.
	ErrEmptySelector = errors.New("selector specifies no scope")
)
