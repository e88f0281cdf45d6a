package search

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/corpora/ai/mock"
	"github.com/corvid-labs/corpora/core"
	"github.com/corvid-labs/corpora/rawstore"
	"github.com/corvid-labs/corpora/vectorindex"
)

// keywordEmbedder maps texts onto two fixed directions so similarity
// rankings are predictable in tests.
func keywordEmbedder() *mock.Embedder {
	embed := func(text string) []float32 {
		if strings.Contains(strings.ToLower(text), "deploy") {
			return []float32{1, 0}
		}
		return []float32{0, 1}
	}
	embedder := mock.NewEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		return embed(text), nil
	}
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = embed(text)
		}
		return vectors, nil
	}
	return embedder
}

func newTestSearcher(t *testing.T) *Searcher {
	t.Helper()
	store, err := rawstore.Open(t.TempDir())
	require.NoError(t, err)

	seed := func(name, text string) {
		batchID, err := store.CreateBatch(core.SourceUpload, name)
		require.NoError(t, err)
		doc := core.UploadDocument{Filename: name + ".txt", Format: core.FormatText, Content: text, Title: name}
		meta := core.DocumentMetadata{
			SourceType: core.SourceUpload,
			SourceID:   "upload_" + name,
			SourceName: name + ".txt",
			IngestedAt: time.Now().UTC(),
		}
		_, err = store.StoreDocument(batchID, core.DocumentID(name), doc, meta)
		require.NoError(t, err)
	}
	seed("deploys", "Every deploy requires a reviewed ticket.")
	seed("lunch", "The lunch menu changes weekly.")

	embedder := keywordEmbedder()
	manager, err := vectorindex.NewManager(store, nil, embedder, vectorindex.WithModelName("test"))
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	_, err = manager.Initialize(context.Background(), false)
	require.NoError(t, err)

	searcher, err := NewSearcher(manager, embedder)
	require.NoError(t, err)
	return searcher
}

func TestFindSimilarRanksRelevantFirst(t *testing.T) {
	searcher := newTestSearcher(t)

	results, err := searcher.FindSimilar(context.Background(), "deploy process", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Text, "deploy")
	assert.Equal(t, "upload", results[0].Metadata["source_type"])
}

func TestFindSimilarFiltersBelowThreshold(t *testing.T) {
	searcher := newTestSearcher(t)

	// Orthogonal to the lunch chunk, similar only to the deploy chunk.
	results, err := searcher.FindSimilar(context.Background(), "deploy", 5)
	require.NoError(t, err)
	for _, result := range results {
		assert.NotContains(t, result.Text, "lunch")
	}
}

func TestFindSimilarVerbatimBoost(t *testing.T) {
	searcher := newTestSearcher(t)

	boosted, err := searcher.FindSimilar(context.Background(), "deploy reviewed ticket", 5)
	require.NoError(t, err)
	plain, err := searcher.FindSimilar(context.Background(), "deploy something unrelated", 5)
	require.NoError(t, err)

	require.NotEmpty(t, boosted)
	require.NotEmpty(t, plain)
	assert.Greater(t, boosted[0].Score, plain[0].Score)
}

func TestFindSimilarMonitor(t *testing.T) {
	searcher := newTestSearcher(t)

	monitor := &recordingMonitor{}
	results, err := searcher.FindSimilarWithMonitor(context.Background(), "deploy", 5, monitor)
	require.NoError(t, err)
	assert.Equal(t, "deploy", monitor.query)
	assert.Equal(t, 2, monitor.dimensions)
	assert.Equal(t, len(results), len(monitor.results))
}

type recordingMonitor struct {
	query      string
	dimensions int
	hits       int
	results    []Result
}

func (r *recordingMonitor) Start(query string)          { r.query = query }
func (r *recordingMonitor) AfterQueryEmbedding(dim int) { r.dimensions = dim }
func (r *recordingMonitor) AfterSemanticSearch(n int)   { r.hits = n }
func (r *recordingMonitor) VerbatimHit(_ string)        {}
func (r *recordingMonitor) Finish(results []Result)     { r.results = results }

func TestContainsAllQueryWords(t *testing.T) {
	assert.True(t, containsAllQueryWords("Every deploy requires a reviewed ticket.", "deploy ticket"))
	assert.False(t, containsAllQueryWords("Every deploy requires a reviewed ticket.", "deploy rollback"))
	// Queries made only of stop words never match.
	assert.False(t, containsAllQueryWords("anything at all", "the and of"))
}
