package process

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/corpora/core"
	"github.com/corvid-labs/corpora/rawstore"
)

func storedDoc(t *testing.T, sourceType core.SourceType, payload any) *rawstore.StoredDocument {
	t.Helper()
	content, err := json.Marshal(payload)
	require.NoError(t, err)
	return &rawstore.StoredDocument{
		ID:      "doc",
		Content: content,
		Metadata: core.DocumentMetadata{
			SourceType: sourceType,
			SourceID:   "src",
			SourceName: "name",
			IngestedAt: time.Now().UTC(),
		},
	}
}

func TestRenderWikiPage(t *testing.T) {
	doc := storedDoc(t, core.SourceWiki, core.WikiPage{
		Title:         "Runbook",
		SpaceKey:      "ENG",
		TextContent:   "# Runbook\n\nSteps here.",
		HierarchyPath: "Engineering / Runbook",
		Author:        "dana",
		LastUpdated:   time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
	})

	text, err := RenderDocument(doc)
	require.NoError(t, err)
	assert.Contains(t, text, "# Runbook")
	assert.Contains(t, text, "Space: ENG")
	assert.Contains(t, text, "Path: Engineering / Runbook")
	assert.Contains(t, text, "Last updated: 2026-02-10 by dana")
	assert.Contains(t, text, "---")
	assert.Contains(t, text, "Steps here.")
}

func TestRenderPagedUpload(t *testing.T) {
	doc := storedDoc(t, core.SourceUpload, core.UploadDocument{
		Filename:   "report.pdf",
		Format:     core.FormatPDF,
		Title:      "Quarterly Report",
		Author:     "finance",
		TotalPages: 2,
		Pages: []core.UploadPage{
			{Number: 1, Text: "intro"},
			{Number: 2, Text: "numbers"},
		},
	})

	text, err := RenderDocument(doc)
	require.NoError(t, err)
	assert.Contains(t, text, "# Quarterly Report")
	assert.Contains(t, text, "Author: finance")
	assert.Contains(t, text, "--- Page 1 ---")
	assert.Contains(t, text, "--- Page 2 ---")
	assert.Contains(t, text, "numbers")
}

func TestRenderFlatUpload(t *testing.T) {
	doc := storedDoc(t, core.SourceUpload, core.UploadDocument{
		Filename: "notes.md",
		Format:   core.FormatMarkdown,
		Content:  "# Notes\n\nAs written.",
		Title:    "Notes",
	})

	text, err := RenderDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, "# Notes\n\nAs written.", text)
}

func TestRenderThreadWithoutTimestamps(t *testing.T) {
	doc := storedDoc(t, core.SourceChat, core.ChatThread{
		ChannelName: "ops",
		Messages:    []core.ChatMessage{{UserName: "ana", Text: "ack"}},
	})

	text, err := RenderDocument(doc)
	require.NoError(t, err)
	assert.Contains(t, text, "# Conversation: #ops")
	assert.Contains(t, text, "ana: ack")
	assert.NotContains(t, text, "[")
}

func TestRenderUnknownSourceType(t *testing.T) {
	doc := storedDoc(t, core.SourceType("ftp"), map[string]string{})
	_, err := RenderDocument(doc)
	assert.ErrorIs(t, err, core.ErrInvalidSourceType)
}
