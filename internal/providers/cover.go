package providers

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/novelgrab/internal/util"
)

// cover candidates are tried in this order; the first valid URL wins
var coverSources = []struct {
	selector string
	attrs    []string
}{
	{`meta[property="og:image"]`, []string{"content"}},
	{`meta[name="og:image"]`, []string{"content"}},
	{`img[class*="book"], img[class*="cover"], img[class*="pic"]`, []string{"src", "data-src", "data-original", "data-lazy-src"}},
	{`img`, []string{"src", "data-src", "data-original", "data-lazy-src"}},
}

// CoverURL finds the most likely cover image on a book page.
func CoverURL(doc *goquery.Document, pageURL string) (string, bool) {
	c := coverCollector{base: pageURL}

	for _, src := range coverSources {
		doc.Find(src.selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if ss, ok := sel.Attr("srcset"); ok {
				c.addSrcset(ss)
			}
			for _, a := range src.attrs {
				if v, ok := sel.Attr(a); ok {
					c.add(v)
				}
			}
			return c.found == ""
		})
		if c.found != "" {
			return c.found, true
		}
	}

	return "", false
}

type coverCollector struct {
	base  string
	found string
}

func (c *coverCollector) add(raw string) {
	if c.found != "" {
		return
	}

	raw = strings.TrimSpace(raw)
	lu := strings.ToLower(raw)
	if raw == "" || strings.HasPrefix(lu, "data:") || strings.HasPrefix(lu, "javascript:") {
		return
	}
	// site chrome, never a book cover
	for _, skip := range []string{"logo", "avatar", "banner", "icon", "gravatar"} {
		if strings.Contains(lu, skip) {
			return
		}
	}

	if u, err := util.NormalizeURL(raw, c.base); err == nil {
		c.found = u
	}
}

// addSrcset takes the first candidate of a srcset attribute.
func (c *coverCollector) addSrcset(ss string) {
	for p := range strings.SplitSeq(ss, ",") {
		if parts := strings.Fields(p); len(parts) > 0 {
			c.add(parts[0])
			return
		}
	}
}

// CoverMediaType picks the image media type from the response header, else
// from the URL extension.
func CoverMediaType(contentType, coverURL string) string {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if strings.HasPrefix(ct, "image/") {
		return ct
	}

	lu := strings.ToLower(coverURL)
	switch {
	case strings.HasSuffix(lu, ".png"):
		return "image/png"
	case strings.HasSuffix(lu, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lu, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
