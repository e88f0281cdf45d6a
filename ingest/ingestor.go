package ingest

import (
	"context"

	"github.com/corvid-labs/corpora/core"
)

// Ingestor is the shared contract of every source variant. A call to Ingest
// creates one batch, stores the items the selector scopes, and returns the
// finalized audit record. The record is persisted to the audit log before
// Ingest returns, regardless of outcome.
//
// The returned error is non-nil only when the entire run failed (the record
// then carries StatusFailed and zero ingested documents); partial failures
// are reported through the record's counters with a completed status.
type Ingestor interface {
	SourceType() core.SourceType
	Ingest(ctx context.Context, sel Selector) (*core.IngestionRecord, error)
}

// Selector identifies the source-specific scope of an ingestion run.
// Implementations are sealed: one selector type per source variant.
type Selector interface {
	sourceType() core.SourceType
}

// ChatSelector scopes a chat ingestion run. Exactly one of ChannelID (live
// API) or ExportPath (exported archive directory) must be set.
type ChatSelector struct {
	ChannelID  string
	ExportPath string

	// Days limits live-channel history to the most recent N days.
	// Zero means the default of 30.
	Days int
}

func (ChatSelector) sourceType() core.SourceType { return core.SourceChat }

// WikiSelector scopes a wiki ingestion run. Exactly one of SpaceKey
// (enumerate all pages of a space) or PageID (a single page) must be set.
type WikiSelector struct {
	SpaceKey string
	PageID   string

	// Limit caps the number of pages fetched from a space. Zero means the
	// default of 500.
	Limit int
}

func (WikiSelector) sourceType() core.SourceType { return core.SourceWiki }

// UploadSelector scopes an upload ingestion run: one or more file paths, or
// an in-memory payload with its filename (the HTTP-upload path).
type UploadSelector struct {
	Paths    []string
	Filename string
	Content  []byte

	// UploadedBy tags stored units with the uploading principal.
	UploadedBy string
}

func (UploadSelector) sourceType() core.SourceType { return core.SourceUpload }
