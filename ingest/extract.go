package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/corvid-labs/corpora/core"
)

// ExtractText turns an uploaded payload into a structured document based on
// its file extension. PDF, Markdown and plain text are supported.
func ExtractText(filename string, data []byte) (*core.UploadDocument, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(filename, data)
	case ".md", ".markdown":
		return extractPlain(filename, data, core.FormatMarkdown)
	case ".txt":
		return extractPlain(filename, data, core.FormatText)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
}

func extractPDF(filename string, data []byte) (*core.UploadDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf %s: %w", filename, err)
	}

	doc := &core.UploadDocument{
		Filename:   filename,
		Format:     core.FormatPDF,
		TotalPages: reader.NumPage(),
	}

	var all strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single damaged page should not discard the rest.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		doc.Pages = append(doc.Pages, core.UploadPage{Number: i, Text: text})
		all.WriteString(text)
		all.WriteString("\n")
	}
	doc.Content = strings.TrimSpace(all.String())

	if info := reader.Trailer().Key("Info"); !info.IsNull() {
		doc.Title = info.Key("Title").Text()
		doc.Author = info.Key("Author").Text()
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	return doc, nil
}

func extractPlain(filename string, data []byte, format core.UploadFormat) (*core.UploadDocument, error) {
	content := strings.TrimSpace(string(data))
	title := strings.TrimSuffix(filename, filepath.Ext(filename))

	// A leading Markdown heading makes a better title than the filename.
	if format == core.FormatMarkdown {
		for _, line := range strings.Split(content, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "# ") {
				title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			}
			break
		}
	}

	return &core.UploadDocument{
		Filename: filename,
		Format:   format,
		Content:  content,
		Title:    title,
	}, nil
}
