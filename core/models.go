package core

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// SourceType identifies the external system a document came from.
type SourceType string

const (
	// SourceChat is a chat platform (threads of messages).
	SourceChat SourceType = "chat"
	// SourceWiki is a wiki platform (rendered pages).
	SourceWiki SourceType = "wiki"
	// SourceUpload is a directly uploaded file.
	SourceUpload SourceType = "upload"
)

// SourceTypes lists every supported source type in storage-layout order.
func SourceTypes() []SourceType {
	return []SourceType{SourceChat, SourceWiki, SourceUpload}
}

// BatchID identifies one ingestion run's container of raw documents.
// Realized on disk as a directory name, but treated as an opaque value
// everywhere above the storage layer.
type BatchID string

func (b BatchID) String() string { return string(b) }

// DocumentID identifies a raw document within its batch.
type DocumentID string

func (d DocumentID) String() string { return string(d) }

// batchIDLayout gives microsecond resolution so two batches created in the
// same process never collide on a timestamp.
const batchIDLayout = "20060102_150405.000000"

// NewBatchID generates a batch identifier from a creation time and a
// descriptive name. The name is sanitized for filesystem use.
func NewBatchID(createdAt time.Time, name string) BatchID {
	ts := createdAt.Format(batchIDLayout)
	safe := SanitizeName(name)
	if safe == "" {
		return BatchID(ts)
	}
	return BatchID(ts + "_" + safe)
}

// SanitizeName replaces every character unsafe for a filename with '_'.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}

// ContentHash returns a short deterministic hash of a payload, used to
// fingerprint binary uploads. Identical content always produces the same hash.
func ContentHash(data []byte) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 16 hex characters
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentMetadata is attached to every stored raw unit and flows, flattened,
// onto every chunk derived from it.
type DocumentMetadata struct {
	SourceType SourceType `json:"source_type"`
	SourceID   string     `json:"source_id"`
	SourceName string     `json:"source_name"`

	// IngestedAt is set once at storage time and never mutated.
	IngestedAt      time.Time  `json:"ingested_at"`
	SourceTimestamp *time.Time `json:"source_timestamp,omitempty"`

	Author string `json:"author,omitempty"`
	Title  string `json:"title,omitempty"`
	URL    string `json:"url,omitempty"`

	// Extra carries source-specific fields (participant lists, page
	// hierarchy, upload format).
	Extra map[string]any `json:"extra,omitempty"`
}

// Flatten converts the metadata into a flat string map suitable for chunk
// attribution and index storage. Extra values are stringified; slices are
// joined with ", ".
func (m DocumentMetadata) Flatten() map[string]string {
	flat := map[string]string{
		"source":      m.SourceName,
		"source_type": string(m.SourceType),
		"source_id":   m.SourceID,
		"ingested_at": m.IngestedAt.Format(time.RFC3339),
	}
	if m.SourceTimestamp != nil {
		flat["source_timestamp"] = m.SourceTimestamp.Format(time.RFC3339)
	}
	if m.Author != "" {
		flat["author"] = m.Author
	}
	if m.Title != "" {
		flat["title"] = m.Title
	}
	if m.URL != "" {
		flat["url"] = m.URL
	}
	for k, v := range m.Extra {
		flat[k] = stringifyExtra(v)
	}
	return flat
}

func stringifyExtra(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = stringifyExtra(e)
		}
		return strings.Join(parts, ", ")
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// IngestionStatus describes the outcome of an ingestion run.
type IngestionStatus string

const (
	StatusInProgress IngestionStatus = "in_progress"
	StatusCompleted  IngestionStatus = "completed"
	StatusFailed     IngestionStatus = "failed"
)

// IngestionRecord is the audit entry for one ingestion operation. It is
// created at operation start, mutated only by its owner, and persisted
// exactly once at completion.
type IngestionRecord struct {
	SourceType  SourceType `json:"source_type"`
	IngestionID string     `json:"ingestion_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	DocumentsIngested int   `json:"documents_ingested"`
	DocumentsFailed   int   `json:"documents_failed"`
	BytesProcessed    int64 `json:"bytes_processed"`

	Status       IngestionStatus `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`

	// SourceIdentifiers lists the external identifiers touched by this run
	// (channel names, space keys, filenames).
	SourceIdentifiers []string `json:"source_identifiers"`
}

// NewIngestionRecord starts a record for a run against the given source.
// The label becomes part of the ingestion ID for readable audit logs.
func NewIngestionRecord(sourceType SourceType, label string) *IngestionRecord {
	now := time.Now().UTC()
	id := fmt.Sprintf("%s_%s_%s_%s",
		sourceType, SanitizeName(label), now.Format("20060102_150405"), uuid.NewString()[:8])
	return &IngestionRecord{
		SourceType:        sourceType,
		IngestionID:       id,
		StartedAt:         now,
		Status:            StatusInProgress,
		SourceIdentifiers: []string{},
	}
}

// Complete marks the run finished. A run counts as completed even when
// individual documents failed; only a run that could not proceed at all is
// marked failed via Fail.
func (r *IngestionRecord) Complete() {
	now := time.Now().UTC()
	r.CompletedAt = &now
	r.Status = StatusCompleted
}

// Fail marks the entire run as failed with the given cause.
func (r *IngestionRecord) Fail(err error) {
	now := time.Now().UTC()
	r.CompletedAt = &now
	r.Status = StatusFailed
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// BatchDocument is one entry in a batch's document manifest.
type BatchDocument struct {
	ID       DocumentID `json:"id"`
	Filename string     `json:"filename"`
	StoredAt time.Time  `json:"stored_at"`
}

// BatchSummary is the batch-level metadata record stored alongside the raw
// documents of a batch.
type BatchSummary struct {
	BatchID    BatchID         `json:"batch_id"`
	SourceType SourceType      `json:"source_type"`
	Name       string          `json:"batch_name"`
	CreatedAt  time.Time       `json:"created_at"`
	Documents  []BatchDocument `json:"documents"`
}

// Chunk is a fixed-size overlapping text window derived from a raw document.
// Chunks are ephemeral: they are re-derivable from raw data at any time and
// are never persisted on their own.
type Chunk struct {
	Text     string
	Metadata map[string]string
}

// IndexVersion is the singleton record describing the current vector index.
// It is overwritten atomically on every initialize/update/rebuild.
type IndexVersion struct {
	Version        int       `json:"version"`
	EmbeddingModel string    `json:"embedding_model"`
	DocumentCount  int       `json:"document_count"`
	CreatedAt      time.Time `json:"created_at"`
	LastUpdated    time.Time `json:"last_updated"`
	LastOperation  string    `json:"last_operation"`

	// Batches lists every batch the index was built from, as
	// "{source_type}/{batch_id}" references. Callers use it to track which
	// batches have already been indexed.
	Batches []string `json:"batches"`
}

// BatchRef builds the index-version reference for a batch.
func BatchRef(sourceType SourceType, batchID BatchID) string {
	return string(sourceType) + "/" + string(batchID)
}
