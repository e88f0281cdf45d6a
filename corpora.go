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

package corpora

import (
	"context"
	"log/slog"

	"github.com/corvid-labs/corpora/ai"
	"github.com/corvid-labs/corpora/ai/openai"
	"github.com/corvid-labs/corpora/core"
	"github.com/corvid-labs/corpora/ingest"
	"github.com/corvid-labs/corpora/process"
	"github.com/corvid-labs/corpora/rawstore"
	"github.com/corvid-labs/corpora/search"
	"github.com/corvid-labs/corpora/vectorindex"
)

// Corpus is the top-level entry point: one raw store, one vector index, and
// the ingestors feeding them. It wires the packages together so callers deal
// with workflows, not plumbing.
type Corpus struct {
	store     *rawstore.Store
	processor *process.Processor
	index     *vectorindex.Manager
	embedder  ai.Embedder
	logger    *slog.Logger

	chat   *ingest.ChatIngestor
	wiki   *ingest.WikiIngestor
	upload *ingest.UploadIngestor
}

// CorpusOption configures a Corpus.
type CorpusOption func(*corpusOptions)

type corpusOptions struct {
	aiConfig   *ai.Config
	embedder   ai.Embedder
	chatClient ingest.ChatClient
	wikiClient ingest.WikiClient
	logger     *slog.Logger
	workers    int
}

// WithAIConfig sets the embedding backend configuration.
func WithAIConfig(config *ai.Config) CorpusOption {
	return func(o *corpusOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithEmbedder injects an embedder directly, bypassing the AI config. Used
// by tests and by callers that bring their own backend.
func WithEmbedder(embedder ai.Embedder) CorpusOption {
	return func(o *corpusOptions) { o.embedder = embedder }
}

// WithChatClient enables live chat ingestion.
func WithChatClient(client ingest.ChatClient) CorpusOption {
	return func(o *corpusOptions) { o.chatClient = client }
}

// WithWikiClient enables wiki ingestion.
func WithWikiClient(client ingest.WikiClient) CorpusOption {
	return func(o *corpusOptions) { o.wikiClient = client }
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) CorpusOption {
	return func(o *corpusOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWorkers sets the embedding worker pool size.
func WithWorkers(workers int) CorpusOption {
	return func(o *corpusOptions) { o.workers = workers }
}

// New opens (or creates) a corpus rooted at basePath.
func New(basePath string, opts ...CorpusOption) (*Corpus, error) {
	options := &corpusOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	store, err := rawstore.Open(basePath, rawstore.WithLogger(options.logger))
	if err != nil {
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig, options.logger)
		if err != nil {
			return nil, err
		}
	}

	processor, err := process.New(store, process.WithLogger(options.logger))
	if err != nil {
		return nil, err
	}

	indexOpts := []vectorindex.Option{
		vectorindex.WithModelName(options.aiConfig.Model),
		vectorindex.WithLogger(options.logger),
	}
	if options.workers > 0 {
		indexOpts = append(indexOpts, vectorindex.WithWorkers(options.workers))
	}
	index, err := vectorindex.NewManager(store, processor, embedder, indexOpts...)
	if err != nil {
		return nil, err
	}

	chatOpts := []ingest.ChatOption{ingest.WithChatLogger(options.logger)}
	if options.chatClient != nil {
		chatOpts = append(chatOpts, ingest.WithChatClient(options.chatClient))
	}
	chat, err := ingest.NewChatIngestor(store, chatOpts...)
	if err != nil {
		index.Close()
		return nil, err
	}

	var wiki *ingest.WikiIngestor
	if options.wikiClient != nil {
		wiki, err = ingest.NewWikiIngestor(store, options.wikiClient, ingest.WithWikiLogger(options.logger))
		if err != nil {
			index.Close()
			return nil, err
		}
	}

	upload, err := ingest.NewUploadIngestor(store, ingest.WithUploadLogger(options.logger))
	if err != nil {
		index.Close()
		return nil, err
	}

	return &Corpus{
		store:     store,
		processor: processor,
		index:     index,
		embedder:  embedder,
		logger:    options.logger,
		chat:      chat,
		wiki:      wiki,
		upload:    upload,
	}, nil
}

// Close releases the vector index database.
func (c *Corpus) Close() error {
	if err := c.index.Close(); err != nil {
		c.logger.Error("error closing vector index", "err", err)
		return err
	}
	return nil
}

// Store exposes the raw document store.
func (c *Corpus) Store() *rawstore.Store { return c.store }

// Index exposes the vector index manager.
func (c *Corpus) Index() *vectorindex.Manager { return c.index }

// IngestChatChannel ingests recent history of one live chat channel.
func (c *Corpus) IngestChatChannel(ctx context.Context, channelID string, days int) (*core.IngestionRecord, error) {
	return c.chat.Ingest(ctx, ingest.ChatSelector{ChannelID: channelID, Days: days})
}

// IngestChatExport ingests an exported chat archive directory.
func (c *Corpus) IngestChatExport(ctx context.Context, exportPath string) (*core.IngestionRecord, error) {
	return c.chat.Ingest(ctx, ingest.ChatSelector{ExportPath: exportPath})
}

// IngestWikiSpace ingests every page of a wiki space.
func (c *Corpus) IngestWikiSpace(ctx context.Context, spaceKey string, limit int) (*core.IngestionRecord, error) {
	if c.wiki == nil {
		return nil, ingest.ErrClientRequired
	}
	return c.wiki.Ingest(ctx, ingest.WikiSelector{SpaceKey: spaceKey, Limit: limit})
}

// IngestWikiPage ingests a single wiki page.
func (c *Corpus) IngestWikiPage(ctx context.Context, pageID string) (*core.IngestionRecord, error) {
	if c.wiki == nil {
		return nil, ingest.ErrClientRequired
	}
	return c.wiki.Ingest(ctx, ingest.WikiSelector{PageID: pageID})
}

// IngestFiles ingests one or more local files as uploads.
func (c *Corpus) IngestFiles(ctx context.Context, paths []string, uploadedBy string) (*core.IngestionRecord, error) {
	return c.upload.Ingest(ctx, ingest.UploadSelector{Paths: paths, UploadedBy: uploadedBy})
}

// IngestBytes ingests an in-memory payload under the given filename.
func (c *Corpus) IngestBytes(ctx context.Context, filename string, content []byte, uploadedBy string) (*core.IngestionRecord, error) {
	return c.upload.Ingest(ctx, ingest.UploadSelector{Filename: filename, Content: content, UploadedBy: uploadedBy})
}

// InitializeIndex builds the vector index from raw data, all batches or an
// explicit subset of "{source_type}/{batch_id}" references.
func (c *Corpus) InitializeIndex(ctx context.Context, force bool, batchRefs ...string) (*core.IndexVersion, error) {
	return c.index.Initialize(ctx, force, batchRefs...)
}

// UpdateIndex merges batches into the existing index: the given references
// in order, or everything ingested since the last index operation when none
// are given.
func (c *Corpus) UpdateIndex(ctx context.Context, batchRefs ...string) (*core.IndexVersion, error) {
	return c.index.Update(ctx, batchRefs...)
}

// RebuildIndex rebuilds the index from scratch, optionally backing up the
// old one first.
func (c *Corpus) RebuildIndex(ctx context.Context, backup bool, batchRefs ...string) (*core.IndexVersion, error) {
	return c.index.Rebuild(ctx, backup, batchRefs...)
}

// IndexInfo returns the current index version record.
func (c *Corpus) IndexInfo() (*core.IndexVersion, error) {
	return c.index.Info()
}

// History lists past ingestion runs, newest first. An empty source type
// lists every source.
func (c *Corpus) History(sourceType core.SourceType) ([]core.IngestionRecord, error) {
	return c.store.IngestionHistory(sourceType)
}

// ListBatches lists stored batches of one source type, newest first.
func (c *Corpus) ListBatches(sourceType core.SourceType) ([]core.BatchSummary, error) {
	return c.store.ListBatches(sourceType)
}

// NewSearcher creates a searcher over the corpus index.
func (c *Corpus) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(c.index, c.embedder, opts...)
}
