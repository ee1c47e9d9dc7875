// Package silvernoelle is the adapter for the Silvernoelle WordPress blog.
// A novel is a category archive: posts are listed newest first and spread
// over "older posts" pages, so chapters are put back in publish order.
package silvernoelle

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/providers"
	"github.com/brogergvhs/novelgrab/internal/providers/generic"
	"github.com/brogergvhs/novelgrab/internal/util"
)

const (
	Name   = "silvernoelle"
	Author = "Silvernoelle"
)

var Match = providers.HostContains("silvernoelle.com")

var (
	nextSelectors = []string{
		"a.nav-previous[href]",
		"a.nextpostslink[href]",
		"a.older-posts[href]",
		".nav-previous a[href]",
		".older-posts a[href]",
	}
	nextTexts = []string{"较旧文章", "較舊文章", "Older Posts", "Older posts"}

	shareBlocks = ".sharedaddy, .sd-sharing, .shared-post, .jp-sharing-input-touch, .jp-relatedposts"

	reCategory = regexp.MustCompile(`^(?:分类|分類|Category)\s*[：:]\s*`)

	// listing and taxonomy pages that show up inside post markup
	navPaths = []string{"/category/", "/tag/", "/page/", "/author/", "/wp-", "/feed", "/comments"}

	cleanup = providers.Cleanup{
		BodyPatterns: []*regexp.Regexp{regexp.MustCompile(`共享此文章：[\s\S]*$`)},
	}
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return Name }

// ResolveIndexURL uses the category URL as given.
func (a *Adapter) ResolveIndexURL(seed providers.Seed) (string, error) {
	return util.NormalizeURL(seed.RawURL, "")
}

func (a *Adapter) NextPageURL(pageHTML, currentURL string) (string, bool) {
	doc, err := providers.ParseHTML(pageHTML)
	if err != nil {
		return "", false
	}

	try := func(sel *goquery.Selection) (string, bool) {
		href, ok := sel.Attr("href")
		if !ok {
			return "", false
		}
		u, err := util.NormalizeURL(href, currentURL)
		return u, err == nil
	}

	for _, s := range nextSelectors {
		if u, ok := try(doc.Find(s).First()); ok {
			return u, true
		}
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		label := providers.CleanText(sel)
		for _, t := range nextTexts {
			if label == t {
				found, _ = try(sel)
				break
			}
		}
		return found == ""
	})
	if found != "" {
		return found, true
	}

	return try(doc.Find(`a[rel="next"][href]`).First())
}

func (a *Adapter) ExtractChapterLinks(pageHTML, _ string) ([]chapters.Link, bool) {
	doc, err := providers.ParseHTML(pageHTML)
	if err != nil {
		return nil, false
	}

	articles := doc.Find("article")
	if articles.Length() == 0 {
		return nil, false
	}

	out := make([]chapters.Link, 0, articles.Length())
	articles.Each(func(_ int, art *goquery.Selection) {
		link := art.Find(".entry-title a[href]").First()
		if link.Length() == 0 {
			link = art.Find(`a[rel~="bookmark"][href]`).First()
		}
		if link.Length() == 0 {
			link = art.Find("a[href]").First()
		}
		if link.Length() == 0 {
			return
		}

		href, _ := link.Attr("href")
		out = append(out, chapters.Link{
			URL:       href,
			Title:     providers.CleanText(link),
			Published: published(art),
		})
	})

	return out, true
}

// IsChapterLink accepts same-host post URLs and rejects archive, taxonomy
// and WordPress system pages.
func (a *Adapter) IsChapterLink(linkURL, indexURL string) bool {
	if !util.SameHost(linkURL, indexURL) || linkURL == indexURL {
		return false
	}

	u, err := url.Parse(linkURL)
	if err != nil {
		return false
	}

	p := strings.ToLower(u.Path)
	if p == "" || p == "/" {
		return false
	}
	for _, nav := range navPaths {
		if strings.Contains(p, nav) {
			return false
		}
	}

	return true
}

func (a *Adapter) ExtractMeta(indexHTML, indexURL string) providers.Meta {
	meta := providers.Meta{Author: Author}

	doc, err := providers.ParseHTML(indexHTML)
	if err != nil {
		return meta
	}

	title := providers.CleanText(doc.Find("h1.archive-title, h1.page-title").First())
	if title == "" {
		title = providers.PageTitle(doc)
	}
	meta.Title = strings.TrimSpace(reCategory.ReplaceAllString(title, ""))

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

	title := providers.CleanText(doc.Find("h1.entry-title").First())
	if title == "" {
		title = providers.PageTitle(doc)
	}

	entry := doc.Find(".entry-content").First()
	if entry.Length() > 0 {
		entry.Find(shareBlocks).Remove()
		body := providers.SelectionText(entry)
		for _, re := range cleanup.BodyPatterns {
			body = strings.TrimSpace(re.ReplaceAllString(body, ""))
		}
		if body != "" {
			return providers.Content{Title: title, Body: body}, true
		}
	}

	// irregular post layout
	c, ok := generic.New().ExtractContent(chapterHTML)
	if !ok {
		return providers.Content{}, false
	}
	if title != "" {
		c.Title = title
	}
	return c, true
}

func (a *Adapter) Ordering() chapters.Ordering { return chapters.OrderNewestFirst }

func (a *Adapter) Cleanup() providers.Cleanup { return cleanup }

func published(art *goquery.Selection) *time.Time {
	raw, ok := art.Find("time[datetime]").First().Attr("datetime")
	if !ok {
		return nil
	}

	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}

	return nil
}
