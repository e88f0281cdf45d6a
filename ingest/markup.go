package ingest

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// HTMLToText converts rendered wiki markup to plain text. Headings become
// "#"-prefixed lines, list items become "- " lines, and paragraph breaks are
// preserved, so downstream chunking can split on structure boundaries.
func HTMLToText(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()

	var b strings.Builder
	doc.Selection.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		renderNode(&b, s)
	})

	text := blankLines.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(text)
}

func renderNode(b *strings.Builder, s *goquery.Selection) {
	node := s.Get(0)
	if node.Type == html.TextNode {
		b.WriteString(collapseSpace(node.Data))
		return
	}
	if node.Type != html.ElementNode {
		return
	}

	switch name := goquery.NodeName(s); name {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(name[1] - '0')
		b.WriteString("\n\n")
		b.WriteString(strings.Repeat("#", level))
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(s.Text()))
		b.WriteString("\n\n")
	case "li":
		b.WriteString("\n- ")
		b.WriteString(strings.TrimSpace(s.Text()))
	case "ul", "ol":
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			renderNode(b, child)
		})
		b.WriteString("\n\n")
	case "pre":
		b.WriteString("\n\n")
		b.WriteString(s.Text())
		b.WriteString("\n\n")
	case "br":
		b.WriteString("\n")
	case "p", "div", "section", "article", "blockquote", "table", "tr":
		b.WriteString("\n\n")
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			renderNode(b, child)
		})
		b.WriteString("\n\n")
	case "td", "th":
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			renderNode(b, child)
		})
		b.WriteString(" ")
	default:
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			renderNode(b, child)
		})
	}
}

func collapseSpace(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	collapsed := strings.Join(fields, " ")
	if strings.HasPrefix(text, " ") || strings.HasPrefix(text, "\n") || strings.HasPrefix(text, "\t") {
		collapsed = " " + collapsed
	}
	if strings.HasSuffix(text, " ") || strings.HasSuffix(text, "\n") || strings.HasSuffix(text, "\t") {
		collapsed += " "
	}
	return collapsed
}
