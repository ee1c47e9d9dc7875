// Package downloader fetches the selected chapters in order and turns each
// into a chapters.Record. One failing chapter never stops the others.
package downloader

import (
	"context"
	"fmt"
	"time"

	"github.com/brogergvhs/novelgrab/internal/cache"
	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/events"
	"github.com/brogergvhs/novelgrab/internal/fetch"
	"github.com/brogergvhs/novelgrab/internal/providers"
	"github.com/brogergvhs/novelgrab/internal/text"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Cache is satisfied by *cache.Store.
type Cache interface {
	Get(ctx context.Context, url string) (cache.Entry, bool, error)
	Put(ctx context.Context, e cache.Entry) error
}

type Options struct {
	// Delay is the pause after each network fetch. In parallel mode it
	// is the minimum spacing between request starts across all workers.
	Delay     time.Duration
	Workers   int
	Transform text.Transform
	Cache     Cache
}

type Downloader struct {
	fetcher Fetcher
	opts    Options
	sink    events.Sink
	sleep   func(context.Context, time.Duration) error
}

func New(f Fetcher, opts Options, sink events.Sink) *Downloader {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}

	sink = events.OrDiscard(sink)
	if opts.Workers > 1 {
		// workers share the sink
		sink = events.Locked(sink)
	}

	return &Downloader{
		fetcher: f,
		opts:    opts,
		sink:    sink,
		sleep:   sleepCtx,
	}
}

// Download returns one record per link, in the order of links. Chapters
// not attempted because ctx was cancelled are marked skipped.
func (d *Downloader) Download(ctx context.Context, a providers.Adapter, links []chapters.Link) []chapters.Record {
	if d.opts.Workers > 1 && len(links) > 1 {
		return d.downloadParallel(ctx, a, links)
	}

	records := make([]chapters.Record, len(links))
	total := len(links)

	for i, l := range links {
		if ctx.Err() != nil {
			d.skipRest(records, links, i)
			break
		}

		rec, networked := d.one(ctx, a, i, l, nil)
		records[i] = rec
		d.report(rec, i+1, total)

		if networked && i < total-1 {
			// a cancelled sleep is picked up at the top of the loop
			_ = d.sleep(ctx, d.opts.Delay)
		}
	}

	return records
}

// one produces the record for links[i]. networked reports whether a
// request was made. wait, when set, is called right before the request.
func (d *Downloader) one(ctx context.Context, a providers.Adapter, i int, l chapters.Link, wait func(context.Context) error) (chapters.Record, bool) {
	idx := i + 1
	cleanup := a.Cleanup()

	if rec, ok := d.cached(ctx, idx, l); ok {
		return rec, false
	}

	if wait != nil {
		if err := wait(ctx); err != nil {
			return chapters.Skipped(idx, l, chapters.ReasonCancelled), false
		}
	}

	page, err := d.fetcher.Fetch(ctx, l.URL)
	if err != nil {
		if ctx.Err() != nil {
			return chapters.Skipped(idx, l, chapters.ReasonCancelled), true
		}
		return chapters.Failed(idx, l, fetch.Reason(err)), true
	}

	content, ok := a.ExtractContent(page.HTML)
	body := ""
	if ok {
		body = text.CollapseWhitespace(text.StripPatterns(content.Body, cleanup.BodyPatterns))
	}
	if body == "" {
		return chapters.Failed(idx, l, chapters.ReasonExtractionEmpty), true
	}

	title := text.NormalizeTitle(l.Title, cleanup.TitlePatterns)
	if title == text.UntitledChapter {
		title = text.NormalizeTitle(content.Title, cleanup.TitlePatterns)
	}

	if d.opts.Cache != nil {
		if err := d.opts.Cache.Put(ctx, cache.Entry{URL: l.URL, Title: title, Body: body}); err != nil {
			events.Warnf(d.sink, l.URL, "could not cache chapter: %v", err)
		}
	}

	return d.finish(idx, l, title, body, false), true
}

func (d *Downloader) cached(ctx context.Context, idx int, l chapters.Link) (chapters.Record, bool) {
	if d.opts.Cache == nil {
		return chapters.Record{}, false
	}

	e, ok, err := d.opts.Cache.Get(ctx, l.URL)
	if err != nil {
		events.Warnf(d.sink, l.URL, "cache lookup failed: %v", err)
		return chapters.Record{}, false
	}
	if !ok || e.Body == "" {
		return chapters.Record{}, false
	}

	return d.finish(idx, l, e.Title, e.Body, true), true
}

// finish applies the optional transform; cached text is stored untransformed.
func (d *Downloader) finish(idx int, l chapters.Link, title, body string, cached bool) chapters.Record {
	rec := chapters.Fetched(idx, l, d.opts.Transform.Apply(title), d.opts.Transform.Apply(body))
	rec.Cached = cached
	return rec
}

func (d *Downloader) report(rec chapters.Record, done, total int) {
	e := events.Event{Chapter: rec.Index, URL: rec.Link.URL, Done: done, Total: total}

	switch rec.Status {
	case chapters.StatusFetched:
		e.Kind = events.Success
		e.Message = fmt.Sprintf("Fetched %s", rec.Title)
		if rec.Cached {
			e.Message += " (cached)"
		}
	case chapters.StatusSkipped:
		e.Kind = events.Info
		e.Message = fmt.Sprintf("Skipped %s: %s", rec.Title, rec.Reason)
	default:
		e.Kind = events.Warning
		e.Message = fmt.Sprintf("Chapter failed, continuing: %s", rec.Reason)
	}

	d.sink.Emit(e)
}

func (d *Downloader) skipRest(records []chapters.Record, links []chapters.Link, from int) {
	for j := from; j < len(links); j++ {
		records[j] = chapters.Skipped(j+1, links[j], chapters.ReasonCancelled)
		d.report(records[j], j+1, len(links))
	}
	d.warnCancelled(records)
}

func (d *Downloader) warnCancelled(records []chapters.Record) {
	n := 0
	for _, r := range records {
		if r.Status == chapters.StatusSkipped && r.Reason == chapters.ReasonCancelled {
			n++
		}
	}
	if n > 0 {
		events.Warnf(d.sink, "", "cancelled, %d chapter(s) not attempted", n)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
