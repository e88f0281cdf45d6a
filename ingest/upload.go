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

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/corvid-labs/corpora/core"
	"github.com/corvid-labs/corpora/rawstore"
)

// UploadIngestor ingests user-provided files, one stored unit per file.
// Alongside the extracted text document, the original bytes are kept in the
// batch so nothing is lost to extraction.
type UploadIngestor struct {
	store  *rawstore.Store
	logger *slog.Logger
}

// UploadOption configures an UploadIngestor.
type UploadOption func(*UploadIngestor)

// WithUploadLogger sets a custom logger. Default is slog.Default().
func WithUploadLogger(logger *slog.Logger) UploadOption {
	return func(u *UploadIngestor) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUploadIngestor creates an upload ingestor writing through the given
// store.
func NewUploadIngestor(store *rawstore.Store, opts ...UploadOption) (*UploadIngestor, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	u := &UploadIngestor{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// SourceType implements Ingestor.
func (u *UploadIngestor) SourceType() core.SourceType { return core.SourceUpload }

// Ingest implements Ingestor for uploads.
func (u *UploadIngestor) Ingest(ctx context.Context, sel Selector) (*core.IngestionRecord, error) {
	uploadSel, ok := sel.(UploadSelector)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrSelectorMismatch, sel)
	}
	switch {
	case len(uploadSel.Content) > 0 && uploadSel.Filename != "":
		return u.ingestBytes(ctx, uploadSel)
	case len(uploadSel.Paths) > 0:
		return u.ingestFiles(ctx, uploadSel)
	default:
		return nil, fmt.Errorf("%w: upload selector needs file paths or a named payload", ErrEmptySelector)
	}
}

func (u *UploadIngestor) ingestFiles(ctx context.Context, sel UploadSelector) (*core.IngestionRecord, error) {
	label := "files"
	if len(sel.Paths) == 1 {
		label = core.SanitizeName(strings.TrimSuffix(filepath.Base(sel.Paths[0]), filepath.Ext(sel.Paths[0])))
	}
	record := core.NewIngestionRecord(core.SourceUpload, label)
	defer u.logRecord(record)

	batchID, err := u.store.CreateBatch(core.SourceUpload, label)
	if err != nil {
		record.Fail(err)
		return record, err
	}
	u.logger.Info("ingesting uploads", "files", len(sel.Paths))

	for _, path := range sel.Paths {
		if err := ctx.Err(); err != nil {
			record.Fail(err)
			return record, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			u.logger.Error("failed to read upload", "path", path, "err", err)
			record.DocumentsFailed++
			continue
		}
		filename := filepath.Base(path)
		record.SourceIdentifiers = append(record.SourceIdentifiers, filename)
		if err := u.storeUpload(batchID, filename, data, sel.UploadedBy); err != nil {
			u.logger.Error("failed to store upload", "file", filename, "err", err)
			record.DocumentsFailed++
			continue
		}
		record.DocumentsIngested++
		record.BytesProcessed += int64(len(data))
	}

	record.Complete()
	return record, nil
}

// ingestBytes handles in-memory payloads, the path taken by HTTP uploads.
func (u *UploadIngestor) ingestBytes(_ context.Context, sel UploadSelector) (*core.IngestionRecord, error) {
	label := core.SanitizeName(strings.TrimSuffix(sel.Filename, filepath.Ext(sel.Filename)))
	record := core.NewIngestionRecord(core.SourceUpload, label)
	record.SourceIdentifiers = append(record.SourceIdentifiers, sel.Filename)
	defer u.logRecord(record)

	batchID, err := u.store.CreateBatch(core.SourceUpload, label)
	if err != nil {
		record.Fail(err)
		return record, err
	}

	if err := u.storeUpload(batchID, sel.Filename, sel.Content, sel.UploadedBy); err != nil {
		record.Fail(err)
		return record, err
	}
	record.DocumentsIngested++
	record.BytesProcessed += int64(len(sel.Content))
	record.Complete()
	return record, nil
}

// storeUpload extracts text from the payload and stores both the extracted
// document and the original bytes in the batch.
func (u *UploadIngestor) storeUpload(batchID core.BatchID, filename string, data []byte, uploadedBy string) error {
	doc, err := ExtractText(filename, data)
	if err != nil {
		return err
	}

	hash := core.ContentHash(data)
	now := time.Now().UTC()
	meta := core.DocumentMetadata{
		SourceType: core.SourceUpload,
		SourceID:   "upload_" + hash,
		SourceName: filename,
		IngestedAt: now,
		Author:     doc.Author,
		Title:      doc.Title,
		Extra: map[string]any{
			"format":       string(doc.Format),
			"size_bytes":   len(data),
			"content_hash": hash,
		},
	}
	if uploadedBy != "" {
		meta.Extra["uploaded_by"] = uploadedBy
	}
	if doc.TotalPages > 0 {
		meta.Extra["total_pages"] = doc.TotalPages
	}

	if _, err := u.store.StoreBinary(batchID, filename, data, meta); err != nil {
		return err
	}

	docID := core.DocumentID(core.SanitizeName(strings.TrimSuffix(filename, filepath.Ext(filename))))
	_, err = u.store.StoreDocument(batchID, docID, doc, meta)
	return err
}

func (u *UploadIngestor) logRecord(record *core.IngestionRecord) {
	if err := u.store.LogIngestion(record); err != nil {
		u.logger.Error("failed to persist ingestion record", "ingestion", record.IngestionID, "err", err)
	}
}
