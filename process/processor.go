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

package process

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/corvid-labs/corpora/core"
	"github.com/corvid-labs/corpora/rawstore"
)

const (
	// ChunkSize is the window length in characters.
	ChunkSize = 700
	// ChunkOverlap is how many characters consecutive chunks share.
	ChunkOverlap = 100
)

// chunkSeparators orders split points from strongest to weakest: paragraph
// break, line break, sentence end, word boundary, then anywhere.
func chunkSeparators() []string {
	return []string{"\n\n", "\n", ". ", " ", ""}
}

// Processor derives chunks from stored raw documents. It holds no state
// between calls; identical input always produces identical chunks.
type Processor struct {
	store    *rawstore.Store
	splitter textsplitter.RecursiveCharacter
	logger   *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Processor reading raw documents from store.
func New(store *rawstore.Store, opts ...Option) (*Processor, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	p := &Processor{
		store: store,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(ChunkSize),
			textsplitter.WithChunkOverlap(ChunkOverlap),
			textsplitter.WithSeparators(chunkSeparators()),
		),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ProcessBatch renders and chunks every document of a batch, in the store's
// enumeration order. A document that cannot be decoded is skipped with a log
// entry; it never poisons the rest of the batch.
func (p *Processor) ProcessBatch(batchID core.BatchID) ([]core.Chunk, error) {
	docs, err := p.store.Documents(batchID)
	if err != nil {
		return nil, err
	}

	var chunks []core.Chunk
	for _, doc := range docs {
		docChunks, err := p.ProcessDocument(doc)
		if err != nil {
			p.logger.Warn("skipping undecodable document", "batch", batchID, "document", doc.ID, "err", err)
			continue
		}
		chunks = append(chunks, docChunks...)
	}
	p.logger.Debug("processed batch", "batch", batchID, "documents", len(docs), "chunks", len(chunks))
	return chunks, nil
}

// ProcessDocument renders one stored document and splits it into overlapping
// chunks carrying the document's flattened metadata plus their position.
func (p *Processor) ProcessDocument(doc *rawstore.StoredDocument) ([]core.Chunk, error) {
	text, err := RenderDocument(doc)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	pieces, err := p.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split document %s: %w", doc.ID, err)
	}

	chunks := make([]core.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		meta := doc.Metadata.Flatten()
		meta["document_id"] = string(doc.ID)
		meta["chunk_index"] = strconv.Itoa(i)
		meta["chunk_total"] = strconv.Itoa(len(pieces))
		chunks = append(chunks, core.Chunk{Text: piece, Metadata: meta})
	}
	return chunks, nil
}
