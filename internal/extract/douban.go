// Package extract parses raw catalog payloads into normalized book records.
package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/shelfbridge/shelfbridge/internal/pipeline"
)

var (
	spaceRun  = regexp.MustCompile(`\s+`)
	nonDigits = regexp.MustCompile(`\D+`)
)

// Douban extracts book fields from a Douban book page. Extraction is a pure
// function over the payload: same bytes in, same record out.
type Douban struct{}

// NewDouban constructs the extractor.
func NewDouban() *Douban {
	return &Douban{}
}

// Extract locates the title and the labeled info section and builds a
// BookRecord. A missing title or info section means the page layout drifted
// and yields ErrParse; missing individual fields are left empty.
func (Douban) Extract(payload pipeline.Payload) (pipeline.BookRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload.Body))
	if err != nil {
		return pipeline.BookRecord{}, fmt.Errorf("%w: %v", pipeline.ErrParse, err)
	}

	title := collapseSpaces(doc.Find(`span[property="v:itemreviewed"]`).First().Text())
	if title == "" {
		return pipeline.BookRecord{}, fmt.Errorf("%w: title marker not found", pipeline.ErrParse)
	}

	info := doc.Find("div#info")
	if info.Length() == 0 {
		return pipeline.BookRecord{}, fmt.Errorf("%w: info section not found", pipeline.ErrParse)
	}

	record := pipeline.BookRecord{Title: title}
	info.Find("span.pl").Each(func(_ int, label *goquery.Selection) {
		if len(label.Nodes) == 0 {
			return
		}
		name := strings.TrimRight(collapseSpaces(label.Text()), ":：")
		value := siblingText(label.Nodes[0])
		if value == "" {
			return
		}
		applyField(&record, name, value)
	})

	return record, nil
}

// siblingText collects the text between a label span and the next <br>,
// the layout Douban uses for its info rows.
func siblingText(label *html.Node) string {
	var parts []string
	for n := label.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data == "br" {
			break
		}
		text := collapseSpaces(nodeText(n))
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	// Slash separators between anchors stay in the value so name lists can
	// be split; stray slashes at the edges are noise.
	value := strings.Join(parts, " ")
	value = strings.TrimLeft(value, ":：")
	value = strings.Trim(collapseSpaces(value), "/")
	return collapseSpaces(value)
}

func applyField(record *pipeline.BookRecord, label, value string) {
	switch {
	case strings.HasPrefix(label, "作者"):
		record.Authors = splitNames(value)
	case strings.HasPrefix(label, "译者"):
		record.Translators = splitNames(value)
	case strings.HasPrefix(label, "出版社"):
		record.Publisher = value
	case strings.HasPrefix(label, "出版年"):
		record.PubDate = value
	case strings.HasPrefix(label, "出品方"):
		record.Producer = value
	case strings.HasPrefix(label, "装帧"):
		record.Binding = value
	case strings.HasPrefix(label, "页数"):
		record.Pages = nonDigits.ReplaceAllString(value, "")
	}
}

// splitNames splits a name list on the catalog's slash separator, trimming
// each entry and dropping empties.
func splitNames(raw string) []string {
	cleaned := strings.ReplaceAll(raw, " / ", "/")
	var names []string
	for _, part := range strings.Split(cleaned, "/") {
		if name := collapseSpaces(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// collapseSpaces squeezes whitespace runs (including non-breaking spaces the
// HTML parser decodes) into single spaces and trims the result.
func collapseSpaces(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}
