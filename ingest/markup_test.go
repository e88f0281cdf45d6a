package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToTextHeadings(t *testing.T) {
	text := HTMLToText("<h1>Title</h1><h2>Section</h2><p>Body text.</p>")
	assert.Contains(t, text, "# Title")
	assert.Contains(t, text, "## Section")
	assert.Contains(t, text, "Body text.")
}

func TestHTMLToTextLists(t *testing.T) {
	text := HTMLToText("<ul><li>first</li><li>second</li></ul>")
	assert.Contains(t, text, "- first")
	assert.Contains(t, text, "- second")
}

func TestHTMLToTextStripsScripts(t *testing.T) {
	text := HTMLToText("<p>visible</p><script>alert(1)</script><style>p{}</style>")
	assert.Contains(t, text, "visible")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "p{}")
}

func TestHTMLToTextParagraphBreaks(t *testing.T) {
	text := HTMLToText("<p>one</p><p>two</p>")
	assert.Contains(t, text, "one\n\ntwo")
}

func TestHTMLToTextEmpty(t *testing.T) {
	assert.Equal(t, "", HTMLToText(""))
	assert.Equal(t, "", HTMLToText("<div></div>"))
}
