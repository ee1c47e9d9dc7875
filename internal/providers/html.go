package providers

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/novelgrab/internal/text"
)

// ParseHTML parses a page for goquery. A nil error is returned for any
// input the html5 parser accepts, which is nearly everything.
func ParseHTML(page string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(page))
}

// PageTitle returns the first <h1>, else the <title>, as plain text.
func PageTitle(doc *goquery.Document) string {
	for _, sel := range []string{"h1", "title"} {
		if s := CleanText(doc.Find(sel).First()); s != "" {
			return s
		}
	}
	return ""
}

// CleanText is the whitespace-collapsed text of a selection on one line.
func CleanText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// SelectionText renders a selection as tidy paragraphs.
func SelectionText(sel *goquery.Selection) string {
	return text.CollapseWhitespace(text.NodesToText(sel.Nodes...))
}

// MainText tries each selector in order and returns the text of the first
// match that has more than minRunes characters, else the whole <body>.
func MainText(doc *goquery.Document, selectors []string, minRunes int) string {
	for _, s := range selectors {
		sel := doc.Find(s).First()
		if sel.Length() == 0 {
			continue
		}
		if t := SelectionText(sel); utf8.RuneCountInString(t) > minRunes {
			return t
		}
	}

	return SelectionText(doc.Find("body").First())
}
