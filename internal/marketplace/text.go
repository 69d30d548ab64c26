package marketplace

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockElements get a separator after them so adjacent paragraphs do not run together.
const blockElements = "p, div, br, li, h1, h2, h3, h4, h5, h6, blockquote, tr"

// PlainText reduces scraped markup to a single line of readable text.
// Input without tags only has its whitespace collapsed.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") && !strings.Contains(s, "&") {
		return collapseSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	doc.Find("script, style, noscript, iframe").Remove()
	doc.Find(blockElements).AfterHtml(" ")
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
