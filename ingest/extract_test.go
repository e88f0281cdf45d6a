package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/corpora/core"
)

func TestExtractMarkdownUsesHeadingAsTitle(t *testing.T) {
	doc, err := ExtractText("guide.md", []byte("# Deployment Guide\n\nSteps follow."))
	require.NoError(t, err)
	assert.Equal(t, core.FormatMarkdown, doc.Format)
	assert.Equal(t, "Deployment Guide", doc.Title)
	assert.Contains(t, doc.Content, "Steps follow.")
}

func TestExtractMarkdownWithoutHeading(t *testing.T) {
	doc, err := ExtractText("guide.md", []byte("no heading here"))
	require.NoError(t, err)
	assert.Equal(t, "guide", doc.Title)
}

func TestExtractPlainText(t *testing.T) {
	doc, err := ExtractText("readme.txt", []byte("  hello world  "))
	require.NoError(t, err)
	assert.Equal(t, core.FormatText, doc.Format)
	assert.Equal(t, "hello world", doc.Content)
	assert.Equal(t, "readme", doc.Title)
	assert.Zero(t, doc.TotalPages)
}

func TestExtractUnsupportedExtension(t *testing.T) {
	_, err := ExtractText("binary.exe", []byte{0x00})
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestExtractCaseInsensitiveExtension(t *testing.T) {
	doc, err := ExtractText("NOTES.MD", []byte("# Notes"))
	require.NoError(t, err)
	assert.Equal(t, core.FormatMarkdown, doc.Format)
}
