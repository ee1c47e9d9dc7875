// Package crawl runs one complete crawl: adapter selection, chapter
// discovery, chapter download and the cover image.
package crawl

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/discovery"
	"github.com/brogergvhs/novelgrab/internal/downloader"
	"github.com/brogergvhs/novelgrab/internal/events"
	"github.com/brogergvhs/novelgrab/internal/fetch"
	"github.com/brogergvhs/novelgrab/internal/providers"
)

const UntitledNovel = "Untitled Novel"

// Fetcher is satisfied by *fetch.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
	FetchBytes(ctx context.Context, url string) (*fetch.Page, error)
}

type Options struct {
	Discovery discovery.Options
	Download  downloader.Options
	Language  string
	SkipCover bool
}

type Session struct {
	registry *providers.Registry
	fetcher  Fetcher
	opts     Options
	sink     events.Sink
}

func NewSession(reg *providers.Registry, f Fetcher, opts Options, sink events.Sink) *Session {
	return &Session{registry: reg, fetcher: f, opts: opts, sink: events.OrDiscard(sink)}
}

// Plan selects the adapter for rawURL and runs discovery only.
func (s *Session) Plan(ctx context.Context, rawURL string) (providers.Adapter, providers.Seed, *discovery.Result, error) {
	a, seed, err := s.registry.Select(rawURL)
	if err != nil {
		return nil, providers.Seed{}, nil, err
	}
	events.Infof(s.sink, "Using the %s adapter", a.Name())

	res, err := discovery.New(s.fetcher, s.opts.Discovery, s.sink).Discover(ctx, a, seed)
	if err != nil {
		return nil, seed, nil, err
	}

	return a, seed, res, nil
}

// Run crawls rawURL. It fails only when the seed is unusable or the chapter
// index cannot be read; everything after that is reported in the result.
func (s *Session) Run(ctx context.Context, rawURL string) (*Result, error) {
	a, seed, disc, err := s.Plan(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	tr := s.opts.Download.Transform
	res := &Result{
		SessionID: uuid.NewString(),
		Seed:      seed,
		IndexURL:  disc.IndexURL,
		Title:     tr.Apply(disc.Meta.Title),
		Author:    tr.Apply(disc.Meta.Author),
		Language:  s.opts.Language,
		Stats:     Stats{Stats: disc.Stats},
		Stop:      disc.Stop,
	}
	if res.Title == "" {
		res.Title = UntitledNovel
	}

	if len(disc.Selected) == 0 {
		events.Warnf(s.sink, disc.IndexURL, "no chapters to download")
	} else {
		dl := downloader.New(s.fetcher, s.opts.Download, s.sink)
		res.Chapters = dl.Download(ctx, a, disc.Selected)
	}
	res.tally()

	if !s.opts.SkipCover && ctx.Err() == nil {
		res.Cover = s.cover(ctx, a, seed, disc.Meta)
	}

	return res, nil
}

// cover fetches the cover image. Failures are only reported.
func (s *Session) cover(ctx context.Context, a providers.Adapter, seed providers.Seed, meta providers.Meta) *Cover {
	coverURL := meta.CoverURL

	if cp, ok := a.(providers.CoverPager); ok {
		if pageURL, ok := cp.CoverPageURL(seed); ok {
			if u, err := s.coverFromPage(ctx, pageURL); err != nil {
				events.Warnf(s.sink, pageURL, "could not read the book page: %v", err)
			} else if u != "" {
				coverURL = u
			}
		}
	}

	if coverURL == "" {
		return nil
	}

	page, err := s.fetcher.FetchBytes(ctx, coverURL)
	if err != nil {
		events.Warnf(s.sink, coverURL, "cover download failed: %s", fetch.Reason(err))
		return nil
	}
	if len(page.Body) == 0 {
		events.Warnf(s.sink, coverURL, "cover image is empty")
		return nil
	}

	return &Cover{
		URL:       coverURL,
		MediaType: providers.CoverMediaType(page.ContentType, coverURL),
		Data:      page.Body,
	}
}

func (s *Session) coverFromPage(ctx context.Context, pageURL string) (string, error) {
	page, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	doc, err := providers.ParseHTML(page.HTML)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}

	base := pageURL
	if page.URL != "" {
		base = page.URL
	}
	u, _ := providers.CoverURL(doc, base)
	return u, nil
}

// Fetched returns only the successfully fetched chapters, in order.
func (r *Result) Fetched() []chapters.Record {
	out := make([]chapters.Record, 0, len(r.Chapters))
	for _, c := range r.Chapters {
		if c.OK() {
			out = append(out, c)
		}
	}
	return out
}
