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

package vectorindex

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/corvid-labs/corpora/ai"
	"github.com/corvid-labs/corpora/core"
	"github.com/corvid-labs/corpora/process"
	"github.com/corvid-labs/corpora/rawstore"
)

const (
	indexDirName    = "vectorstore"
	versionFileName = "vectorstore_version.json"
	backupTimeFmt   = "20060102_150405"
)

// Manager owns the index lifecycle: initialize, incremental update, rebuild
// with backup, and the version record describing what the index contains.
// Methods serialize through an internal mutex; concurrent callers never see
// a half-written index.
type Manager struct {
	store     *rawstore.Store
	processor *process.Processor
	embedder  ai.Embedder
	model     string
	workers   int
	logger    *slog.Logger

	indexPath   string
	versionPath string

	mu      sync.Mutex
	backend *Backend
}

// Option configures a Manager.
type Option func(*Manager)

// WithModelName records the embedding model name in the version record.
func WithModelName(model string) Option {
	return func(m *Manager) {
		if model != "" {
			m.model = model
		}
	}
}

// WithWorkers sets the size of the embedding worker pool.
func WithWorkers(workers int) Option {
	return func(m *Manager) {
		if workers > 0 {
			m.workers = workers
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates an index manager over the given raw store and embedding
// backend. The index lives under the store's base path, next to the raw data
// it derives from.
func NewManager(store *rawstore.Store, processor *process.Processor, embedder ai.Embedder, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if processor == nil {
		var err error
		processor, err = process.New(store)
		if err != nil {
			return nil, err
		}
	}

	m := &Manager{
		store:       store,
		processor:   processor,
		embedder:    embedder,
		model:       "unknown",
		workers:     runtime.NumCPU(),
		logger:      slog.Default(),
		indexPath:   filepath.Join(store.BasePath(), indexDirName),
		versionPath: filepath.Join(store.BasePath(), versionFileName),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Initialize builds the index from raw batches. With no references given,
// every batch in the raw store is indexed; callers may restrict the build to
// an explicit subset of "{source_type}/{batch_id}" references. An index that
// already exists is refused unless force is set, in which case it is
// discarded first.
func (m *Manager) Initialize(ctx context.Context, force bool, batchRefs ...string) (*core.IndexVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exists() {
		if !force {
			return nil, ErrAlreadyInitialized
		}
		if err := m.reset(); err != nil {
			return nil, err
		}
	}
	return m.build(ctx, "initialize", 1, batchRefs)
}

// Update embeds the given batches and merges them into the existing index,
// in the order the references are supplied. An already-indexed batch passed
// explicitly is embedded again; the version record's batch list is the
// caller's tool for tracking what has been indexed. With no references,
// Update falls back to every batch not yet listed in the version record and
// is a no-op when nothing is pending.
func (m *Manager) Update(ctx context.Context, batchRefs ...string) (*core.IndexVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	version, err := m.readVersion()
	if err != nil {
		return nil, err
	}

	var pending []core.BatchSummary
	if len(batchRefs) > 0 {
		pending, err = m.resolveRefs(batchRefs)
		if err != nil {
			return nil, err
		}
	} else {
		pending, err = m.pendingBatches(version)
		if err != nil {
			return nil, err
		}
		if len(pending) == 0 {
			m.logger.Info("index is up to date", "version", version.Version)
			return version, nil
		}
	}

	entries, refs, err := m.collect(ctx, pending)
	if err != nil {
		return nil, err
	}

	backend, err := m.ensureBackend()
	if err != nil {
		return nil, err
	}
	if err := backend.AddEntries(entries); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	version.Version++
	version.DocumentCount += len(entries)
	version.LastUpdated = now
	version.LastOperation = "update"
	version.Batches = append(version.Batches, refs...)
	if err := m.writeVersion(version); err != nil {
		return nil, err
	}

	m.logger.Info("index updated",
		"version", version.Version, "new_batches", len(pending), "new_chunks", len(entries))
	return version, nil
}

// Rebuild discards the index and rebuilds it from raw data, all batches by
// default or an explicit subset of references. With backup set, the old
// index directory is copied aside first and kept even if the rebuild fails.
// Rebuilding a missing index degrades to a plain initialize.
func (m *Manager) Rebuild(ctx context.Context, backup bool, batchRefs ...string) (*core.IndexVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.exists() {
		m.logger.Warn("no existing index, building from scratch")
		return m.build(ctx, "initialize", 1, batchRefs)
	}

	previous, err := m.readVersion()
	if err != nil {
		return nil, err
	}

	if backup {
		backupPath := filepath.Join(m.store.BasePath(), indexDirName+"_backup_"+time.Now().UTC().Format(backupTimeFmt))
		if err := m.backupIndex(backupPath); err != nil {
			return nil, fmt.Errorf("backup index: %w", err)
		}
		m.logger.Info("index backed up", "path", backupPath)
	}

	if err := m.reset(); err != nil {
		return nil, err
	}
	return m.build(ctx, "rebuild", previous.Version+1, batchRefs)
}

// Info returns the current version record.
func (m *Manager) Info() (*core.IndexVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readVersion()
}

// FindSimilar scores every index entry against the query vector.
func (m *Manager) FindSimilar(vector []float32, minSimilarity float32, limit int) ([]ScoredEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.exists() {
		return nil, ErrNotInitialized
	}
	backend, err := m.ensureBackend()
	if err != nil {
		return nil, err
	}
	return backend.FindSimilar(vector, minSimilarity, limit)
}

// Close releases the underlying index database.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeBackend()
}

// build embeds raw batches into a fresh index and writes the version record.
// Empty batchRefs means every batch of the store. Callers hold the mutex.
func (m *Manager) build(ctx context.Context, operation string, versionNum int, batchRefs []string) (*core.IndexVersion, error) {
	var batches []core.BatchSummary
	var err error
	if len(batchRefs) > 0 {
		batches, err = m.resolveRefs(batchRefs)
	} else {
		batches, err = m.store.AllBatches()
	}
	if err != nil {
		return nil, err
	}

	entries, refs, err := m.collect(ctx, batches)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		m.logger.Warn("no documents found, creating empty index")
	}

	backend, err := m.ensureBackend()
	if err != nil {
		return nil, err
	}
	if err := backend.AddEntries(entries); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	version := &core.IndexVersion{
		Version:        versionNum,
		EmbeddingModel: m.model,
		DocumentCount:  len(entries),
		CreatedAt:      now,
		LastUpdated:    now,
		LastOperation:  operation,
		Batches:        refs,
	}
	if err := m.writeVersion(version); err != nil {
		return nil, err
	}

	m.logger.Info("index built",
		"operation", operation, "version", versionNum, "batches", len(batches), "chunks", len(entries))
	return version, nil
}

// collect processes and embeds the given batches, returning entries and the
// batch references they came from.
func (m *Manager) collect(ctx context.Context, batches []core.BatchSummary) ([]Entry, []string, error) {
	var chunks []core.Chunk
	refs := make([]string, 0, len(batches))
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		batchChunks, err := m.processor.ProcessBatch(batch.BatchID)
		if err != nil {
			return nil, nil, fmt.Errorf("process batch %s: %w", batch.BatchID, err)
		}
		chunks = append(chunks, batchChunks...)
		refs = append(refs, core.BatchRef(batch.SourceType, batch.BatchID))
	}

	entries, err := m.embedChunks(ctx, chunks)
	if err != nil {
		return nil, nil, err
	}
	return entries, refs, nil
}

// resolveRefs loads the batch summaries behind caller-supplied references,
// preserving the caller's order.
func (m *Manager) resolveRefs(refs []string) ([]core.BatchSummary, error) {
	batches := make([]core.BatchSummary, 0, len(refs))
	for _, ref := range refs {
		st, id, ok := strings.Cut(ref, "/")
		if !ok || st == "" || id == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBatchRef, ref)
		}
		if err := core.ValidateSourceType(core.SourceType(st)); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidBatchRef, ref, err)
		}
		summary, err := m.store.GetBatch(core.BatchID(id))
		if err != nil {
			return nil, fmt.Errorf("resolve batch %q: %w", ref, err)
		}
		if summary.SourceType != core.SourceType(st) {
			return nil, fmt.Errorf("%w: %q belongs to source %s", ErrInvalidBatchRef, ref, summary.SourceType)
		}
		batches = append(batches, *summary)
	}
	return batches, nil
}

// pendingBatches returns the store's batches not yet listed in the version
// record.
func (m *Manager) pendingBatches(version *core.IndexVersion) ([]core.BatchSummary, error) {
	indexed := make(map[string]bool, len(version.Batches))
	for _, ref := range version.Batches {
		indexed[ref] = true
	}

	batches, err := m.store.AllBatches()
	if err != nil {
		return nil, err
	}
	var pending []core.BatchSummary
	for _, batch := range batches {
		if !indexed[core.BatchRef(batch.SourceType, batch.BatchID)] {
			pending = append(pending, batch)
		}
	}
	return pending, nil
}

func (m *Manager) ensureBackend() (*Backend, error) {
	if m.backend != nil && !m.backend.IsClosed() {
		return m.backend, nil
	}
	backend, err := OpenBackend(m.indexPath, false)
	if err != nil {
		return nil, err
	}
	m.backend = backend
	return backend, nil
}

func (m *Manager) closeBackend() error {
	if m.backend == nil || m.backend.IsClosed() {
		m.backend = nil
		return nil
	}
	err := m.backend.Close()
	m.backend = nil
	return err
}

// exists reports whether an index has been initialized, judged by the
// version record or a leftover index directory.
func (m *Manager) exists() bool {
	if _, err := os.Stat(m.versionPath); err == nil {
		return true
	}
	if _, err := os.Stat(m.indexPath); err == nil {
		return true
	}
	return false
}

// reset removes the live index and its version record.
func (m *Manager) reset() error {
	if err := m.closeBackend(); err != nil {
		return err
	}
	if err := os.RemoveAll(m.indexPath); err != nil {
		return err
	}
	if err := os.Remove(m.versionPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// backupIndex copies the closed index directory to backupPath. A version
// record can outlive its index directory; with nothing on disk to copy, the
// backup is skipped rather than failing the rebuild.
func (m *Manager) backupIndex(backupPath string) error {
	if err := m.closeBackend(); err != nil {
		return err
	}
	if _, err := os.Stat(m.indexPath); os.IsNotExist(err) {
		m.logger.Warn("index directory missing, skipping backup")
		return nil
	}
	return copyDir(m.indexPath, backupPath)
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
}
