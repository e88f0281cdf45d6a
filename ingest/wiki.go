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
	"strconv"
	"strings"
	"time"

	"github.com/corvid-labs/corpora/core"
	"github.com/corvid-labs/corpora/rawstore"
)

const defaultPageLimit = 500

// WikiPageData is a rendered wiki page as returned by a WikiClient.
type WikiPageData struct {
	ID        string
	Title     string
	SpaceKey  string
	HTMLBody  string
	Version   int
	UpdatedAt time.Time
	Author    string
	Ancestors []string
	WebURL    string
}

// WikiClient reads rendered pages from a wiki platform.
type WikiClient interface {
	// SpacePages enumerates up to limit pages of a space.
	SpacePages(ctx context.Context, spaceKey string, limit int) ([]WikiPageData, error)

	// Page fetches a single page by its platform identifier.
	Page(ctx context.Context, pageID string) (*WikiPageData, error)
}

// WikiIngestor ingests wiki pages, one stored unit per page. Page markup is
// converted to plain text with heading and list structure preserved.
type WikiIngestor struct {
	store  *rawstore.Store
	client WikiClient
	logger *slog.Logger
}

// WikiOption configures a WikiIngestor.
type WikiOption func(*WikiIngestor)

// WithWikiLogger sets a custom logger. Default is slog.Default().
func WithWikiLogger(logger *slog.Logger) WikiOption {
	return func(w *WikiIngestor) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWikiIngestor creates a wiki ingestor reading through client and writing
// through store.
func NewWikiIngestor(store *rawstore.Store, client WikiClient, opts ...WikiOption) (*WikiIngestor, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if client == nil {
		return nil, fmt.Errorf("%w: wiki client", ErrClientRequired)
	}
	w := &WikiIngestor{
		store:  store,
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// SourceType implements Ingestor.
func (w *WikiIngestor) SourceType() core.SourceType { return core.SourceWiki }

// Ingest implements Ingestor for wiki sources.
func (w *WikiIngestor) Ingest(ctx context.Context, sel Selector) (*core.IngestionRecord, error) {
	wikiSel, ok := sel.(WikiSelector)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrSelectorMismatch, sel)
	}
	switch {
	case wikiSel.SpaceKey != "":
		return w.ingestSpace(ctx, wikiSel)
	case wikiSel.PageID != "":
		return w.ingestPage(ctx, wikiSel.PageID)
	default:
		return nil, fmt.Errorf("%w: wiki selector needs a space key or page id", ErrEmptySelector)
	}
}

func (w *WikiIngestor) ingestSpace(ctx context.Context, sel WikiSelector) (*core.IngestionRecord, error) {
	record := core.NewIngestionRecord(core.SourceWiki, sel.SpaceKey)
	defer w.logRecord(record)
	record.SourceIdentifiers = append(record.SourceIdentifiers, sel.SpaceKey)

	limit := sel.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	pages, err := w.client.SpacePages(ctx, sel.SpaceKey, limit)
	if err != nil {
		err = fmt.Errorf("%w: space %s: %w", ErrSourceUnavailable, sel.SpaceKey, err)
		record.Fail(err)
		return record, err
	}
	w.logger.Info("ingesting wiki space", "space", sel.SpaceKey, "pages", len(pages))

	batchID, err := w.store.CreateBatch(core.SourceWiki, "space_"+sel.SpaceKey)
	if err != nil {
		record.Fail(err)
		return record, err
	}

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			record.Fail(err)
			return record, err
		}
		bytes, err := w.storePage(batchID, page)
		if err != nil {
			w.logger.Error("failed to store page", "page", page.ID, "title", page.Title, "err", err)
			record.DocumentsFailed++
			continue
		}
		record.DocumentsIngested++
		record.BytesProcessed += bytes
	}

	record.Complete()
	return record, nil
}

func (w *WikiIngestor) ingestPage(ctx context.Context, pageID string) (*core.IngestionRecord, error) {
	record := core.NewIngestionRecord(core.SourceWiki, "page_"+pageID)
	defer w.logRecord(record)

	page, err := w.client.Page(ctx, pageID)
	if err != nil {
		err = fmt.Errorf("%w: page %s: %w", ErrSourceUnavailable, pageID, err)
		record.Fail(err)
		return record, err
	}
	record.SourceIdentifiers = append(record.SourceIdentifiers, page.Title)
	w.logger.Info("ingesting wiki page", "page", pageID, "title", page.Title)

	batchID, err := w.store.CreateBatch(core.SourceWiki, "page_"+core.SanitizeName(page.Title))
	if err != nil {
		record.Fail(err)
		return record, err
	}

	bytes, err := w.storePage(batchID, *page)
	if err != nil {
		record.Fail(err)
		return record, err
	}
	record.DocumentsIngested++
	record.BytesProcessed += bytes
	record.Complete()
	return record, nil
}

func (w *WikiIngestor) storePage(batchID core.BatchID, data WikiPageData) (int64, error) {
	text := HTMLToText(data.HTMLBody)

	hierarchy := strings.Join(append(append([]string{}, data.Ancestors...), data.Title), " / ")
	page := core.WikiPage{
		PageID:        data.ID,
		Title:         data.Title,
		SpaceKey:      data.SpaceKey,
		HTMLContent:   data.HTMLBody,
		TextContent:   text,
		Version:       data.Version,
		LastUpdated:   data.UpdatedAt,
		Author:        data.Author,
		HierarchyPath: hierarchy,
		URL:           data.WebURL,
	}

	updated := data.UpdatedAt
	meta := core.DocumentMetadata{
		SourceType:      core.SourceWiki,
		SourceID:        data.ID,
		SourceName:      data.SpaceKey,
		IngestedAt:      time.Now().UTC(),
		SourceTimestamp: &updated,
		Author:          data.Author,
		Title:           data.Title,
		URL:             data.WebURL,
		Extra: map[string]any{
			"space_key":      data.SpaceKey,
			"version":        strconv.Itoa(data.Version),
			"hierarchy_path": hierarchy,
		},
	}

	_, err := w.store.StoreDocument(batchID, core.DocumentID("page_"+core.SanitizeName(data.ID)), page, meta)
	return int64(len(text)), err
}

func (w *WikiIngestor) logRecord(record *core.IngestionRecord) {
	if err := w.store.LogIngestion(record); err != nil {
		w.logger.Error("failed to persist ingestion record", "ingestion", record.IngestionID, "err", err)
	}
}
