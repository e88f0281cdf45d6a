package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/corvid-labs/corpora/ai"
	"github.com/corvid-labs/corpora/vectorindex"
)

// defaultMinSimilarity filters out chunks with little semantic relation to
// the query before scoring.
const defaultMinSimilarity = 0.60

// Result is one search hit: the chunk text, its flattened source metadata,
// and the final relevance score.
type Result struct {
	Text     string
	Metadata map[string]string
	Score    float32
}

// Searcher answers queries against a vector index.
type Searcher struct {
	index         *vectorindex.Manager
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity overrides the similarity threshold applied before
// scoring.
func WithMinSimilarity(minSimilarity float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = minSimilarity
		return nil
	}
}

// NewSearcher creates a new searcher over the given index, embedding queries
// with embedder.
func NewSearcher(index *vectorindex.Manager, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		index:         index,
		embedder:      embedder,
		minSimilarity: defaultMinSimilarity,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// FindSimilar searches for chunks similar to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]Result, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches with monitoring. The monitor receives
// callbacks at each stage of the search process.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor Monitor) ([]Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(len(embedding))

	matches, err := s.index.FindSimilar(embedding, s.minSimilarity, maxHits)
	if err != nil {
		s.logger.Error("error querying index", "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(len(matches))

	results := make([]Result, 0, len(matches))
	for _, match := range matches {
		score := match.Score
		if containsAllQueryWords(match.Entry.Text, query) {
			score += 0.3
			monitor.VerbatimHit(match.Entry.Text)
		}
		results = append(results, Result{
			Text:     match.Entry.Text,
			Metadata: match.Entry.Metadata,
			Score:    score,
		})
	}

	// The verbatim boost can reorder hits, so sort again.
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}
