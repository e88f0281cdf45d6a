package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/corpora/core"
	"github.com/corvid-labs/corpora/rawstore"
)

type fakeChatClient struct {
	info       *ChannelInfo
	infoErr    error
	messages   []RawMessage
	historyErr error
	users      map[string]string
	usersErr   error
}

func (f *fakeChatClient) ChannelInfo(_ context.Context, _ string) (*ChannelInfo, error) {
	return f.info, f.infoErr
}

func (f *fakeChatClient) ChannelHistory(_ context.Context, _ string, _ time.Time, _ int) ([]RawMessage, error) {
	return f.messages, f.historyErr
}

func (f *fakeChatClient) Users(_ context.Context) (map[string]string, error) {
	return f.users, f.usersErr
}

func newTestStore(t *testing.T) *rawstore.Store {
	t.Helper()
	store, err := rawstore.Open(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestChatIngestChannel(t *testing.T) {
	store := newTestStore(t)
	client := &fakeChatClient{
		info: &ChannelInfo{ID: "C123", Name: "engineering"},
		messages: []RawMessage{
			{TS: "1700000000.000100", UserID: "U1", Text: "anyone seen the deploy fail?"},
			{TS: "1700000010.000200", ThreadTS: "1700000000.000100", UserID: "U2", Text: "yes, rolling back"},
			{TS: "1700000100.000300", UserID: "U3", Text: "standup in 5"},
		},
		users: map[string]string{"U1": "ana", "U2": "bruno", "U3": "carla"},
	}
	ingestor, err := NewChatIngestor(store, WithChatClient(client))
	require.NoError(t, err)

	record, err := ingestor.Ingest(context.Background(), ChatSelector{ChannelID: "C123"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, record.Status)
	assert.Equal(t, 2, record.DocumentsIngested)
	assert.Equal(t, 0, record.DocumentsFailed)
	assert.Contains(t, record.SourceIdentifiers, "engineering")
	assert.Positive(t, record.BytesProcessed)

	batches, err := store.ListBatches(core.SourceChat)
	require.NoError(t, err)
	require.Len(t, batches, 1)

	docs, err := store.Documents(batches[0].BatchID)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	var thread core.ChatThread
	require.NoError(t, json.Unmarshal(docs[0].Content, &thread))
	assert.Equal(t, "engineering", thread.ChannelName)
	assert.Equal(t, 2, thread.MessageCount)
	assert.Equal(t, []string{"ana", "bruno"}, thread.Participants)
	assert.Equal(t, "ana", thread.Messages[0].UserName)

	assert.Equal(t, "#engineering", docs[0].Metadata.SourceName)
	assert.Equal(t, "1700000000.000100", docs[0].Metadata.SourceID)
	assert.Equal(t, "ana, bruno", docs[0].Metadata.Flatten()["participants"])
}

func TestChatIngestPartialThreadFailures(t *testing.T) {
	// Twelve thread roots, two of which carry corrupt timestamps that cannot
	// become valid document identifiers. The run still completes; the bad
	// threads are counted, not fatal.
	messages := make([]RawMessage, 0, 12)
	for i := 0; i < 10; i++ {
		messages = append(messages, RawMessage{
			TS:     fmt.Sprintf("17000000%02d.000100", i),
			UserID: "U1",
			Text:   fmt.Sprintf("message %d", i),
		})
	}
	messages = append(messages,
		RawMessage{TS: "..1", UserID: "U1", Text: "corrupt one"},
		RawMessage{TS: "..2", UserID: "U1", Text: "corrupt two"},
	)

	store := newTestStore(t)
	client := &fakeChatClient{
		info:     &ChannelInfo{ID: "C77", Name: "incidents"},
		messages: messages,
		users:    map[string]string{"U1": "ana"},
	}
	ingestor, err := NewChatIngestor(store, WithChatClient(client))
	require.NoError(t, err)

	record, err := ingestor.Ingest(context.Background(), ChatSelector{ChannelID: "C77"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, record.Status)
	assert.Equal(t, 10, record.DocumentsIngested)
	assert.Equal(t, 2, record.DocumentsFailed)

	batches, err := store.ListBatches(core.SourceChat)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	docs, err := store.Documents(batches[0].BatchID)
	require.NoError(t, err)
	assert.Len(t, docs, 10)
}

func TestChatIngestChannelUnavailable(t *testing.T) {
	store := newTestStore(t)
	client := &fakeChatClient{infoErr: errors.New("connection refused")}
	ingestor, err := NewChatIngestor(store, WithChatClient(client))
	require.NoError(t, err)

	record, err := ingestor.Ingest(context.Background(), ChatSelector{ChannelID: "C404"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	require.NotNil(t, record)
	assert.Equal(t, core.StatusFailed, record.Status)
	assert.Equal(t, 0, record.DocumentsIngested)
	assert.NotEmpty(t, record.ErrorMessage)

	// The failed run is still audited.
	history, err := store.IngestionHistory(core.SourceChat)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, record.IngestionID, history[0].IngestionID)
}

func TestChatIngestUnresolvedUsersKeepIDs(t *testing.T) {
	store := newTestStore(t)
	client := &fakeChatClient{
		info:     &ChannelInfo{ID: "C1", Name: "ops"},
		messages: []RawMessage{{TS: "1700000000.000100", UserID: "U9", Text: "ping"}},
		usersErr: errors.New("users.list denied"),
	}
	ingestor, err := NewChatIngestor(store, WithChatClient(client))
	require.NoError(t, err)

	record, err := ingestor.Ingest(context.Background(), ChatSelector{ChannelID: "C1"})
	require.NoError(t, err)
	assert.Equal(t, 1, record.DocumentsIngested)

	batches, err := store.ListBatches(core.SourceChat)
	require.NoError(t, err)
	docs, err := store.Documents(batches[0].BatchID)
	require.NoError(t, err)

	var thread core.ChatThread
	require.NoError(t, json.Unmarshal(docs[0].Content, &thread))
	assert.Equal(t, "U9", thread.Messages[0].UserName)
}

func TestChatSelectorValidation(t *testing.T) {
	store := newTestStore(t)
	ingestor, err := NewChatIngestor(store, WithChatClient(&fakeChatClient{}))
	require.NoError(t, err)

	_, err = ingestor.Ingest(context.Background(), WikiSelector{SpaceKey: "ENG"})
	assert.ErrorIs(t, err, ErrSelectorMismatch)

	_, err = ingestor.Ingest(context.Background(), ChatSelector{})
	assert.ErrorIs(t, err, ErrEmptySelector)
}

func TestChatChannelRequiresClient(t *testing.T) {
	store := newTestStore(t)
	ingestor, err := NewChatIngestor(store)
	require.NoError(t, err)

	_, err = ingestor.Ingest(context.Background(), ChatSelector{ChannelID: "C1"})
	assert.ErrorIs(t, err, ErrClientRequired)
}

func TestChatIngestExport(t *testing.T) {
	exportDir := t.TempDir()
	writeExportFile(t, exportDir, "channels.json",
		`[{"ID":"C1","Name":"general"},{"ID":"C2","Name":"random"}]`)
	writeExportFile(t, exportDir, "users.json",
		`[{"id":"U1","name":"ana.r","profile":{"display_name":"ana"}}]`)
	require.NoError(t, os.MkdirAll(filepath.Join(exportDir, "general"), 0o755))
	writeExportFile(t, filepath.Join(exportDir, "general"), "2026-01-02.json",
		`[{"type":"message","ts":"1700000000.000100","user":"U1","text":"hello"},
		  {"type":"message","subtype":"channel_join","ts":"1700000001.000100","user":"U1","text":"joined"}]`)
	require.NoError(t, os.MkdirAll(filepath.Join(exportDir, "random"), 0o755))
	writeExportFile(t, filepath.Join(exportDir, "random"), "2026-01-02.json",
		`[{"type":"message","ts":"1700000002.000100","user":"U1","text":"lunch?"}]`)

	store := newTestStore(t)
	ingestor, err := NewChatIngestor(store)
	require.NoError(t, err)

	record, err := ingestor.Ingest(context.Background(), ChatSelector{ExportPath: exportDir})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, record.Status)
	assert.Equal(t, 2, record.DocumentsIngested)
	assert.Equal(t, 0, record.DocumentsFailed)
	assert.ElementsMatch(t, []string{"general", "random"}, record.SourceIdentifiers)

	batches, err := store.ListBatches(core.SourceChat)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	docs, err := store.Documents(batches[0].BatchID)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	var thread core.ChatThread
	require.NoError(t, json.Unmarshal(docs[0].Content, &thread))
	assert.Equal(t, "ana", thread.Messages[0].UserName)
	// The join event was filtered out.
	assert.Equal(t, 1, thread.MessageCount)
}

func TestChatIngestExportMissingPath(t *testing.T) {
	store := newTestStore(t)
	ingestor, err := NewChatIngestor(store)
	require.NoError(t, err)

	record, err := ingestor.Ingest(context.Background(), ChatSelector{ExportPath: "/does/not/exist"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, core.StatusFailed, record.Status)
}

func TestGroupThreadsOrdering(t *testing.T) {
	messages := []RawMessage{
		{TS: "1700000100.000300", UserID: "U3", Text: "later root"},
		{TS: "1700000010.000200", ThreadTS: "1700000000.000100", UserID: "U2", Text: "reply"},
		{TS: "1700000000.000100", UserID: "U1", Text: "earlier root"},
	}
	threads := groupThreads(messages)
	require.Len(t, threads, 2)
	assert.Equal(t, "earlier root", threads[0][0].Text)
	assert.Equal(t, "reply", threads[0][1].Text)
	assert.Equal(t, "later root", threads[1][0].Text)
}

func writeExportFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
