package process

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/corpora/core"
	"github.com/corvid-labs/corpora/rawstore"
)

func newTestStore(t *testing.T) *rawstore.Store {
	t.Helper()
	store, err := rawstore.Open(t.TempDir())
	require.NoError(t, err)
	return store
}

func storeThread(t *testing.T, store *rawstore.Store, batchID core.BatchID, docID string, thread core.ChatThread) {
	t.Helper()
	meta := core.DocumentMetadata{
		SourceType: core.SourceChat,
		SourceID:   thread.ThreadID,
		SourceName: "#" + thread.ChannelName,
		IngestedAt: time.Now().UTC(),
	}
	_, err := store.StoreDocument(batchID, core.DocumentID(docID), thread, meta)
	require.NoError(t, err)
}

func TestProcessBatchChat(t *testing.T) {
	store := newTestStore(t)
	batchID, err := store.CreateBatch(core.SourceChat, "engineering")
	require.NoError(t, err)

	storeThread(t, store, batchID, "thread_1", core.ChatThread{
		ThreadID:     "1700000000.000100",
		ChannelName:  "engineering",
		MessageCount: 2,
		Participants: []string{"ana", "bruno"},
		Messages: []core.ChatMessage{
			{UserName: "ana", Text: "deploy failed", Timestamp: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)},
			{UserName: "bruno", Text: "rolling back", Timestamp: time.Date(2026, 1, 5, 10, 1, 0, 0, time.UTC)},
		},
	})

	processor, err := New(store)
	require.NoError(t, err)

	chunks, err := processor.ProcessBatch(batchID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.Contains(t, chunks[0].Text, "# Conversation: #engineering")
	assert.Contains(t, chunks[0].Text, "ana: deploy failed")
	assert.Equal(t, "chat", chunks[0].Metadata["source_type"])
	assert.Equal(t, "thread_1", chunks[0].Metadata["document_id"])
	assert.Equal(t, "0", chunks[0].Metadata["chunk_index"])
}

func TestProcessBatchDeterministic(t *testing.T) {
	store := newTestStore(t)
	batchID, err := store.CreateBatch(core.SourceUpload, "policy")
	require.NoError(t, err)

	paragraphs := make([]string, 40)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat("All deployments require a reviewed change ticket. ", 4)
	}
	doc := core.UploadDocument{
		Filename: "policy.txt",
		Format:   core.FormatText,
		Content:  strings.Join(paragraphs, "\n\n"),
		Title:    "policy",
	}
	meta := core.DocumentMetadata{
		SourceType: core.SourceUpload,
		SourceID:   "upload_abc",
		SourceName: "policy.txt",
		IngestedAt: time.Now().UTC(),
	}
	_, err = store.StoreDocument(batchID, "policy", doc, meta)
	require.NoError(t, err)

	processor, err := New(store)
	require.NoError(t, err)

	first, err := processor.ProcessBatch(batchID)
	require.NoError(t, err)
	second, err := processor.ProcessBatch(batchID)
	require.NoError(t, err)

	require.Greater(t, len(first), 1)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Text, second[i].Text)
		assert.Equal(t, first[i].Metadata, second[i].Metadata)
	}

	for _, chunk := range first {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.Text), ChunkSize)
	}
}

func TestProcessBatchPolicyUploadChunkCount(t *testing.T) {
	store := newTestStore(t)
	batchID, err := store.CreateBatch(core.SourceUpload, "policy")
	require.NoError(t, err)

	// Four ~300-character paragraphs, roughly two hundred words. Two
	// paragraphs fit a 700-character window, so the splitter emits exactly
	// two chunks of two paragraphs each.
	paragraph := strings.TrimSpace(strings.Repeat("deploy rules ", 23))
	content := strings.Join([]string{paragraph, paragraph, paragraph, paragraph}, "\n\n")

	doc := core.UploadDocument{
		Filename: "policy.md",
		Format:   core.FormatMarkdown,
		Content:  content,
		Title:    "policy",
	}
	meta := core.DocumentMetadata{
		SourceType: core.SourceUpload,
		SourceID:   "upload_policy",
		SourceName: "policy.md",
		IngestedAt: time.Now().UTC(),
	}
	_, err = store.StoreDocument(batchID, "policy", doc, meta)
	require.NoError(t, err)

	processor, err := New(store)
	require.NoError(t, err)

	chunks, err := processor.ProcessBatch(batchID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.Text), ChunkSize)
		assert.Equal(t, "upload", chunk.Metadata["source_type"])
		assert.Equal(t, "policy.md", chunk.Metadata["source"])
		assert.Equal(t, "2", chunk.Metadata["chunk_total"])
	}
}

func TestProcessDocumentEmptyContent(t *testing.T) {
	store := newTestStore(t)
	batchID, err := store.CreateBatch(core.SourceUpload, "empty")
	require.NoError(t, err)

	doc := core.UploadDocument{Filename: "empty.txt", Format: core.FormatText}
	meta := core.DocumentMetadata{
		SourceType: core.SourceUpload,
		SourceID:   "upload_empty",
		SourceName: "empty.txt",
		IngestedAt: time.Now().UTC(),
	}
	_, err = store.StoreDocument(batchID, "empty", doc, meta)
	require.NoError(t, err)

	processor, err := New(store)
	require.NoError(t, err)

	chunks, err := processor.ProcessBatch(batchID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestProcessBatchSkipsUndecodable(t *testing.T) {
	store := newTestStore(t)
	batchID, err := store.CreateBatch(core.SourceChat, "mixed")
	require.NoError(t, err)

	// A document whose payload does not match its declared source type.
	meta := core.DocumentMetadata{
		SourceType: core.SourceChat,
		SourceID:   "bogus",
		SourceName: "#mixed",
		IngestedAt: time.Now().UTC(),
	}
	_, err = store.StoreDocument(batchID, "bogus", "just a string", meta)
	require.NoError(t, err)

	storeThread(t, store, batchID, "thread_ok", core.ChatThread{
		ThreadID:    "1700000000.000100",
		ChannelName: "mixed",
		Messages:    []core.ChatMessage{{UserName: "ana", Text: "still here"}},
	})

	processor, err := New(store)
	require.NoError(t, err)

	chunks, err := processor.ProcessBatch(batchID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Contains(t, chunk.Text, "still here")
	}
}
