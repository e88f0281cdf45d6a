package vectorindex

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/corvid-labs/corpora/core"
)

const embedBatchSize = 32

// embedChunks turns chunks into index entries, embedding texts in fixed-size
// batches on a worker pool. All-or-nothing: any batch failure discards the
// whole result so the index never receives a partial write.
func (m *Manager) embedChunks(ctx context.Context, chunks []core.Chunk) ([]Entry, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(m.workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	entries := make([]Entry, len(chunks))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		batch := chunks[start:end]
		offset := start

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if failed() || ctx.Err() != nil {
				return
			}

			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Text
			}
			vectors, err := m.embedder.EmbedTexts(ctx, texts)
			if err != nil {
				fail(err)
				return
			}
			for i, vector := range vectors {
				entries[offset+i] = Entry{
					Text:     batch[i].Text,
					Vector:   vector,
					Metadata: batch[i].Metadata,
				}
			}
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
