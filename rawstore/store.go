// Copyright 2026 Corvid Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rawstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/corvid-labs/corpora/core"
)

const (
	rawDirName  = "raw"
	logsDirName = "ingestion_logs"

	batchMetaFile  = "metadata.json"
	metaFileSuffix = ".meta.json"
)

// Store manages the immutable raw data store rooted at a base directory.
// It assumes a single writer; concurrent writers are out of scope.
type Store struct {
	basePath string
	rawPath  string
	logsPath string
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open initializes the raw store directory structure under basePath and
// returns a Store. Existing data is left untouched.
func Open(basePath string, opts ...Option) (*Store, error) {
	s := &Store{
		basePath: basePath,
		rawPath:  filepath.Join(basePath, rawDirName),
		logsPath: filepath.Join(basePath, logsDirName),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, st := range core.SourceTypes() {
		if err := os.MkdirAll(filepath.Join(s.rawPath, string(st)), 0o755); err != nil {
			return nil, fmt.Errorf("%w: initializing raw directories: %w", ErrStorage, err)
		}
	}
	if err := os.MkdirAll(s.logsPath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: initializing log directory: %w", ErrStorage, err)
	}

	s.logger.Info("raw store initialized", "path", basePath)
	return s, nil
}

// BasePath returns the root directory of the store.
func (s *Store) BasePath() string { return s.basePath }

// CreateBatch creates a new batch directory for an ingestion run and writes
// its batch-level metadata record. The generated identifier combines a
// microsecond timestamp with the sanitized name, so collisions indicate a
// real fault and are reported rather than papered over.
func (s *Store) CreateBatch(sourceType core.SourceType, name string) (core.BatchID, error) {
	if err := core.ValidateSourceType(sourceType); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	batchID := core.NewBatchID(now, name)
	batchDir := filepath.Join(s.rawPath, string(sourceType), string(batchID))

	if _, err := os.Stat(batchDir); err == nil {
		return "", fmt.Errorf("%w: %w: %s", ErrStorage, ErrBatchExists, batchID)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("%w: probing batch dir: %w", ErrStorage, err)
	}

	if err := os.MkdirAll(batchDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating batch dir: %w", ErrStorage, err)
	}

	summary := core.BatchSummary{
		BatchID:    batchID,
		SourceType: sourceType,
		Name:       name,
		CreatedAt:  now,
		Documents:  []core.BatchDocument{},
	}
	if err := s.writeJSONAtomic(filepath.Join(batchDir, batchMetaFile), summary); err != nil {
		return "", err
	}

	s.logger.Info("created ingestion batch", "batch", batchID, "source", sourceType)
	return batchID, nil
}

// StoreDocument writes content and metadata as two linked records inside a
// batch. The document ID must be unique within the batch; a duplicate write
// is rejected with ErrDuplicateDocument and the first write is left intact.
// Returns the path of the stored content file.
func (s *Store) StoreDocument(batchID core.BatchID, docID core.DocumentID, content any, meta core.DocumentMetadata) (string, error) {
	if err := core.ValidateDocumentID(docID); err != nil {
		return "", err
	}
	if err := core.ValidateMetadata(meta); err != nil {
		return "", err
	}
	batchDir, _, err := s.resolveBatch(batchID)
	if err != nil {
		return "", err
	}

	safeID := core.SanitizeName(string(docID))
	contentPath := filepath.Join(batchDir, safeID+".json")
	metaPath := filepath.Join(batchDir, safeID+metaFileSuffix)

	if fileExists(contentPath) || fileExists(metaPath) {
		return "", fmt.Errorf("%w: %s in batch %s", ErrDuplicateDocument, docID, batchID)
	}

	// Metadata first, content last: the content file is the commit record.
	if err := s.writeJSONAtomic(metaPath, meta); err != nil {
		return "", err
	}
	if err := s.writeJSONAtomic(contentPath, content); err != nil {
		os.Remove(metaPath)
		return "", err
	}

	if err := s.appendManifest(batchDir, core.BatchDocument{
		ID:       docID,
		Filename: filepath.Base(contentPath),
		StoredAt: time.Now().UTC(),
	}); err != nil {
		return "", err
	}

	s.logger.Debug("stored document", "batch", batchID, "document", docID)
	return contentPath, nil
}

// StoreBinary writes a non-text payload (for example an uploaded PDF) with
// its metadata. A short content hash is computed and recorded in the stored
// metadata so callers can detect re-uploads of identical files; the store
// itself does not deduplicate. Returns the path of the stored file.
func (s *Store) StoreBinary(batchID core.BatchID, filename string, data []byte, meta core.DocumentMetadata) (string, error) {
	if err := core.ValidateMetadata(meta); err != nil {
		return "", err
	}
	batchDir, _, err := s.resolveBatch(batchID)
	if err != nil {
		return "", err
	}

	hash := core.ContentHash(data)
	ext := filepath.Ext(filename)
	stem := core.SanitizeName(strings.TrimSuffix(filepath.Base(filename), ext))
	stored := stem + "_" + hash

	filePath := filepath.Join(batchDir, stored+ext)
	metaPath := filepath.Join(batchDir, stored+metaFileSuffix)

	if fileExists(filePath) || fileExists(metaPath) {
		return "", fmt.Errorf("%w: %s in batch %s", ErrDuplicateDocument, stored, batchID)
	}

	// Annotate a copy; the caller may reuse its Extra map for other records.
	extra := make(map[string]any, len(meta.Extra)+3)
	for k, v := range meta.Extra {
		extra[k] = v
	}
	extra["original_filename"] = filename
	extra["content_hash"] = hash
	extra["size_bytes"] = len(data)
	meta.Extra = extra

	if err := s.writeJSONAtomic(metaPath, meta); err != nil {
		return "", err
	}
	if err := s.writeFileAtomic(filePath, data); err != nil {
		os.Remove(metaPath)
		return "", err
	}

	if err := s.appendManifest(batchDir, core.BatchDocument{
		ID:       core.DocumentID(stored),
		Filename: filepath.Base(filePath),
		StoredAt: time.Now().UTC(),
	}); err != nil {
		return "", err
	}

	s.logger.Info("stored binary file", "batch", batchID, "file", filepath.Base(filePath), "bytes", len(data))
	return filePath, nil
}

// StoredDocument pairs a raw content record with its metadata as read back
// from a batch.
type StoredDocument struct {
	ID       core.DocumentID
	Content  json.RawMessage
	Metadata core.DocumentMetadata
}

// LoadDocument reads a single stored document and its metadata.
func (s *Store) LoadDocument(batchID core.BatchID, docID core.DocumentID) (*StoredDocument, error) {
	if err := core.ValidateDocumentID(docID); err != nil {
		return nil, err
	}
	batchDir, _, err := s.resolveBatch(batchID)
	if err != nil {
		return nil, err
	}
	safeID := core.SanitizeName(string(docID))
	return s.readDocument(batchDir, safeID, docID)
}

// Documents reads every JSON document of a batch in filename order. Content
// files without a committed metadata record are skipped; binary payloads are
// not returned here (their extracted-text document is).
func (s *Store) Documents(batchID core.BatchID) ([]*StoredDocument, error) {
	batchDir, _, err := s.resolveBatch(batchID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(batchDir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading batch dir: %w", ErrStorage, err)
	}

	var docs []*StoredDocument
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == batchMetaFile ||
			strings.HasSuffix(name, metaFileSuffix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		safeID := strings.TrimSuffix(name, ".json")
		doc, err := s.readDocument(batchDir, safeID, core.DocumentID(safeID))
		if err != nil {
			s.logger.Warn("skipping uncommitted document", "batch", batchID, "file", name, "err", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// GetBatch returns the batch-level summary including the document manifest.
func (s *Store) GetBatch(batchID core.BatchID) (*core.BatchSummary, error) {
	batchDir, _, err := s.resolveBatch(batchID)
	if err != nil {
		return nil, err
	}
	var summary core.BatchSummary
	if err := readJSON(filepath.Join(batchDir, batchMetaFile), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListBatches returns summaries for every batch of a source type, newest
// first. Directories without a committed batch metadata record are ignored.
func (s *Store) ListBatches(sourceType core.SourceType) ([]core.BatchSummary, error) {
	if err := core.ValidateSourceType(sourceType); err != nil {
		return nil, err
	}

	sourceDir := filepath.Join(s.rawPath, string(sourceType))
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading source dir: %w", ErrStorage, err)
	}

	var batches []core.BatchSummary
	// ReadDir sorts ascending; batch ids sort by timestamp, so walk backwards.
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if !entry.IsDir() {
			continue
		}
		var summary core.BatchSummary
		metaPath := filepath.Join(sourceDir, entry.Name(), batchMetaFile)
		if err := readJSON(metaPath, &summary); err != nil {
			continue
		}
		batches = append(batches, summary)
	}
	return batches, nil
}

// AllBatches returns summaries for every batch across all source types.
func (s *Store) AllBatches() ([]core.BatchSummary, error) {
	var all []core.BatchSummary
	for _, st := range core.SourceTypes() {
		batches, err := s.ListBatches(st)
		if err != nil {
			return nil, err
		}
		all = append(all, batches...)
	}
	return all, nil
}

func (s *Store) resolveBatch(batchID core.BatchID) (dir string, sourceType core.SourceType, err error) {
	if err := core.ValidateBatchID(batchID); err != nil {
		return "", "", err
	}
	for _, st := range core.SourceTypes() {
		dir := filepath.Join(s.rawPath, string(st), string(batchID))
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, st, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
}

func (s *Store) readDocument(batchDir, safeID string, docID core.DocumentID) (*StoredDocument, error) {
	contentPath := filepath.Join(batchDir, safeID+".json")
	metaPath := filepath.Join(batchDir, safeID+metaFileSuffix)

	content, err := os.ReadFile(contentPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
		}
		return nil, fmt.Errorf("%w: reading content: %w", ErrStorage, err)
	}
	var meta core.DocumentMetadata
	if err := readJSON(metaPath, &meta); err != nil {
		return nil, err
	}
	return &StoredDocument{ID: docID, Content: content, Metadata: meta}, nil
}

// appendManifest records a stored document in the batch's metadata file.
// The manifest is advisory; the committed content/meta file pair remains the
// authoritative record.
func (s *Store) appendManifest(batchDir string, doc core.BatchDocument) error {
	metaPath := filepath.Join(batchDir, batchMetaFile)
	var summary core.BatchSummary
	if err := readJSON(metaPath, &summary); err != nil {
		return err
	}
	summary.Documents = append(summary.Documents, doc)
	return s.writeJSONAtomic(metaPath, summary)
}

func (s *Store) writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %w", ErrStorage, filepath.Base(path), err)
	}
	return s.writeFileAtomic(path, data)
}

// writeFileAtomic writes via a temp file in the same directory and renames
// into place, so readers never observe a partial write.
func (s *Store) writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %w", ErrStorage, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing temp file: %w", ErrStorage, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: syncing temp file: %w", ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing temp file: %w", ErrStorage, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: setting permissions: %w", ErrStorage, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: committing %s: %w", ErrStorage, filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDocumentNotFound, filepath.Base(path))
		}
		return fmt.Errorf("%w: reading %s: %w", ErrStorage, filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", ErrStorage, filepath.Base(path), err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
