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

package process

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/corvid-labs/corpora/core"
	"github.com/corvid-labs/corpora/rawstore"
)

// RenderDocument produces the canonical text representation of a stored raw
// document. The rendering embeds source context (channel, participants, page
// hierarchy, page numbers) directly in the text so each chunk stays
// interpretable on its own.
func RenderDocument(doc *rawstore.StoredDocument) (string, error) {
	switch doc.Metadata.SourceType {
	case core.SourceChat:
		var thread core.ChatThread
		if err := json.Unmarshal(doc.Content, &thread); err != nil {
			return "", fmt.Errorf("decode chat thread %s: %w", doc.ID, err)
		}
		return renderThread(thread), nil
	case core.SourceWiki:
		var page core.WikiPage
		if err := json.Unmarshal(doc.Content, &page); err != nil {
			return "", fmt.Errorf("decode wiki page %s: %w", doc.ID, err)
		}
		return renderPage(page), nil
	case core.SourceUpload:
		var upload core.UploadDocument
		if err := json.Unmarshal(doc.Content, &upload); err != nil {
			return "", fmt.Errorf("decode upload %s: %w", doc.ID, err)
		}
		return renderUpload(upload), nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrInvalidSourceType, doc.Metadata.SourceType)
	}
}

func renderThread(thread core.ChatThread) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Conversation: #%s\n", thread.ChannelName)
	if len(thread.Participants) > 0 {
		fmt.Fprintf(&b, "Participants: %s\n", strings.Join(thread.Participants, ", "))
	}
	b.WriteString("\n")
	for _, msg := range thread.Messages {
		if msg.Timestamp.IsZero() {
			fmt.Fprintf(&b, "%s: %s\n", msg.UserName, msg.Text)
			continue
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", msg.Timestamp.Format("2006-01-02 15:04"), msg.UserName, msg.Text)
	}
	return strings.TrimSpace(b.String())
}

func renderPage(page core.WikiPage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", page.Title)
	if page.SpaceKey != "" {
		fmt.Fprintf(&b, "Space: %s\n", page.SpaceKey)
	}
	if page.HierarchyPath != "" {
		fmt.Fprintf(&b, "Path: %s\n", page.HierarchyPath)
	}
	if !page.LastUpdated.IsZero() {
		fmt.Fprintf(&b, "Last updated: %s", page.LastUpdated.Format("2006-01-02"))
		if page.Author != "" {
			fmt.Fprintf(&b, " by %s", page.Author)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n---\n\n")
	b.WriteString(page.TextContent)
	return strings.TrimSpace(b.String())
}

func renderUpload(upload core.UploadDocument) string {
	// Page-structured uploads keep their page boundaries visible; flat text
	// formats are already chunkable as stored.
	if len(upload.Pages) == 0 {
		return strings.TrimSpace(upload.Content)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", upload.Title)
	if upload.Author != "" {
		fmt.Fprintf(&b, "Author: %s\n", upload.Author)
	}
	if upload.TotalPages > 0 {
		fmt.Fprintf(&b, "Pages: %d\n", upload.TotalPages)
	}
	for _, page := range upload.Pages {
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s\n", page.Number, page.Text)
	}
	return strings.TrimSpace(b.String())
}
