package generic

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/providers"
	"github.com/brogergvhs/novelgrab/internal/util"
)

const Name = "generic"

const UnknownAuthor = "Unknown Author"

var (
	reChapterNo = regexp.MustCompile(`第\s*(\d+)\s*章`)
	reHTMLNo    = regexp.MustCompile(`(\d+)\.html(?:$|\?)`)
	reAuthor    = regexp.MustCompile(`作者\s*[：:]\s*$`)
)

// ContentSelectors are tried in order when extracting a chapter body.
var ContentSelectors = []string{"#content", `div[class*="content"]`, "article"}

// minContentRunes is how long a candidate body must be before it is
// preferred over the whole page.
const minContentRunes = 60

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return Name }

func (a *Adapter) ResolveIndexURL(seed providers.Seed) (string, error) {
	return util.NormalizeURL(seed.RawURL, "")
}

// NextPageURL always reports false; catalogs are single page.
func (a *Adapter) NextPageURL(string, string) (string, bool) { return "", false }

func (a *Adapter) ExtractChapterLinks(pageHTML, _ string) ([]chapters.Link, bool) {
	doc, err := providers.ParseHTML(pageHTML)
	if err != nil {
		return nil, false
	}

	scope := doc.Find("ul.mulu_list")
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	anchors := scope.Find("a[href]")
	if anchors.Length() == 0 {
		return nil, false
	}

	out := make([]chapters.Link, 0, anchors.Length())
	anchors.Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		title := providers.CleanText(s)
		if title == "" {
			title = titleFromHref(href)
		}

		out = append(out, chapters.Link{
			URL:      href,
			Title:    title,
			Sequence: Sequence(title, href),
		})
	})

	return out, true
}

// IsChapterLink accepts same-host .html pages under /book/.
func (a *Adapter) IsChapterLink(linkURL, indexURL string) bool {
	if !util.SameHost(linkURL, indexURL) {
		return false
	}

	u, err := url.Parse(linkURL)
	if err != nil {
		return false
	}

	p := strings.ToLower(u.Path)
	return strings.HasSuffix(p, ".html") && strings.Contains(u.Path, "/book/")
}

func (a *Adapter) ExtractMeta(indexHTML, indexURL string) providers.Meta {
	doc, err := providers.ParseHTML(indexHTML)
	if err != nil {
		return providers.Meta{Author: UnknownAuthor}
	}

	meta := providers.Meta{
		Title:  providers.CleanText(doc.Find("div.mu_h1 h1").First()),
		Author: Author(doc),
	}
	if meta.Title == "" {
		meta.Title = providers.PageTitle(doc)
	}
	if meta.Author == "" {
		meta.Author = UnknownAuthor
	}
	if cover, ok := providers.CoverURL(doc, indexURL); ok {
		meta.CoverURL = cover
	}

	return meta
}

func (a *Adapter) ExtractContent(chapterHTML string) (providers.Content, bool) {
	doc, err := providers.ParseHTML(chapterHTML)
	if err != nil {
		return providers.Content{}, false
	}

	c := providers.Content{
		Title: providers.PageTitle(doc),
		Body:  providers.MainText(doc, ContentSelectors, minContentRunes),
	}

	return c, c.Body != ""
}

func (a *Adapter) Ordering() chapters.Ordering { return chapters.OrderSequence }

func (a *Adapter) Cleanup() providers.Cleanup { return providers.Cleanup{} }

// Sequence extracts a chapter number from 第N章 in the title, else from
// the digits right before ".html" in the href.
func Sequence(title, href string) *int {
	if m := reChapterNo.FindStringSubmatch(title); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	if m := reHTMLNo.FindStringSubmatch(href); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	return nil
}

// Author finds the link that follows a "作者：" label.
func Author(doc *goquery.Document) string {
	var author string
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		prev := s.Nodes[0].PrevSibling
		if prev == nil || prev.Type != html.TextNode {
			return true
		}
		if reAuthor.MatchString(prev.Data) {
			author = providers.CleanText(s)
			return author == ""
		}
		return true
	})
	return author
}

func titleFromHref(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, ".html")
}
