// Package feed treats an RSS or Atom feed as a chapter catalog. Items are
// chapters; their pages are extracted with the generic content rules.
package feed

import (
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/providers"
	"github.com/brogergvhs/novelgrab/internal/providers/generic"
	"github.com/brogergvhs/novelgrab/internal/util"
)

const Name = "feed"

var Match = providers.PathSuffix("/feed", "/feed/", ".rss", ".atom", ".xml")

var contentSelectors = append([]string{".entry-content", ".post-content"}, generic.ContentSelectors...)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return Name }

func (a *Adapter) ResolveIndexURL(seed providers.Seed) (string, error) {
	return util.NormalizeURL(seed.RawURL, "")
}

// NextPageURL reports false; a feed is a single document.
func (a *Adapter) NextPageURL(string, string) (string, bool) { return "", false }

func (a *Adapter) ExtractChapterLinks(pageHTML, _ string) ([]chapters.Link, bool) {
	f, err := gofeed.NewParser().ParseString(pageHTML)
	if err != nil || len(f.Items) == 0 {
		return nil, false
	}

	out := make([]chapters.Link, 0, len(f.Items))
	for _, item := range f.Items {
		if item == nil || item.Link == "" {
			continue
		}

		l := chapters.Link{URL: item.Link, Title: strings.TrimSpace(item.Title)}
		switch {
		case item.PublishedParsed != nil:
			l.Published = item.PublishedParsed
		case item.UpdatedParsed != nil:
			l.Published = item.UpdatedParsed
		}
		out = append(out, l)
	}

	return out, true
}

func (a *Adapter) IsChapterLink(linkURL, indexURL string) bool {
	return linkURL != indexURL
}

func (a *Adapter) ExtractMeta(indexHTML, indexURL string) providers.Meta {
	meta := providers.Meta{Author: generic.UnknownAuthor}

	f, err := gofeed.NewParser().ParseString(indexHTML)
	if err != nil {
		return meta
	}

	meta.Title = strings.TrimSpace(f.Title)
	if name := authorName(f); name != "" {
		meta.Author = name
	}
	if f.Image != nil && f.Image.URL != "" {
		if u, err := util.NormalizeURL(f.Image.URL, indexURL); err == nil {
			meta.CoverURL = u
		}
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

	c := providers.Content{Title: title, Body: providers.MainText(doc, contentSelectors, 60)}
	return c, c.Body != ""
}

func (a *Adapter) Ordering() chapters.Ordering { return chapters.OrderChronological }

func (a *Adapter) Cleanup() providers.Cleanup { return providers.Cleanup{} }

func authorName(f *gofeed.Feed) string {
	if f.Author != nil && f.Author.Name != "" {
		return f.Author.Name
	}
	for _, p := range f.Authors {
		if p != nil && p.Name != "" {
			return p.Name
		}
	}
	return ""
}
