// Package discovery walks a site's chapter index, following pagination,
// and produces the ordered, deduplicated chapter list for a crawl.
package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/events"
	"github.com/brogergvhs/novelgrab/internal/fetch"
	"github.com/brogergvhs/novelgrab/internal/providers"
	"github.com/brogergvhs/novelgrab/internal/util"
)

const DefaultMaxPages = 80

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

type Options struct {
	Start    int // 1-based, inclusive
	End      int // inclusive, 0 = last chapter
	MaxPages int // catalog pages to visit at most
}

type StopReason int

const (
	StopExhausted   StopReason = iota // no further page
	StopPageLimit                     // MaxPages reached with more pages announced
	StopCycle                         // next page was already visited
	StopFetchFailed                   // a later catalog page could not be fetched
	StopCancelled
)

func (r StopReason) String() string {
	switch r {
	case StopExhausted:
		return "exhausted"
	case StopPageLimit:
		return "page-limit"
	case StopCycle:
		return "cycle"
	case StopFetchFailed:
		return "fetch-failed"
	case StopCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("stop(%d)", int(r))
	}
}

// Partial reports whether discovery ended before the catalog was read to
// its end.
func (r StopReason) Partial() bool { return r != StopExhausted }

type Stats struct {
	Pages             int
	Candidates        int
	Accepted          int
	FilteredNav       int
	FilteredDuplicate int
	FilteredInvalid   int
}

type Result struct {
	IndexURL string
	Meta     providers.Meta

	// All is the full ordered chapter list; Selected is the start/end
	// range of it that will be downloaded.
	All      []chapters.Link
	Selected []chapters.Link

	Stats Stats
	Stop  StopReason
}

// IndexError means the chapter index could not be determined or fetched.
// It is fatal for a crawl.
type IndexError struct {
	URL string
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("chapter index %s: %v", e.URL, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

type Engine struct {
	fetcher Fetcher
	opts    Options
	sink    events.Sink
}

func New(f Fetcher, opts Options, sink events.Sink) *Engine {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Start < 1 {
		opts.Start = 1
	}
	if opts.End < 0 {
		opts.End = 0
	}
	return &Engine{fetcher: f, opts: opts, sink: events.OrDiscard(sink)}
}

// ResolveIndex asks the adapter for the index URL. A seed without the id
// the adapter needs falls back to the seed itself.
func (e *Engine) ResolveIndex(a providers.Adapter, seed providers.Seed) (string, error) {
	idx, err := a.ResolveIndexURL(seed)
	switch {
	case err == nil:
		return idx, nil
	case errors.Is(err, providers.ErrNoNovelID):
		events.Warnf(e.sink, seed.RawURL, "could not find a novel id, using the given URL as the chapter index")
		idx, err = util.NormalizeURL(seed.RawURL, "")
		if err != nil {
			return "", &IndexError{URL: seed.RawURL, Err: err}
		}
		return idx, nil
	default:
		return "", &IndexError{URL: seed.RawURL, Err: err}
	}
}

// Discover resolves the index page and collects chapter links from it and
// every following page. Only a failure on the first page is an error; later
// problems end discovery early with what was gathered so far.
func (e *Engine) Discover(ctx context.Context, a providers.Adapter, seed providers.Seed) (*Result, error) {
	indexURL, err := e.ResolveIndex(a, seed)
	if err != nil {
		return nil, err
	}
	events.Infof(e.sink, "Using chapter index %s", indexURL)

	res := &Result{IndexURL: indexURL}
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	cur := indexURL

	for {
		if err := ctx.Err(); err != nil {
			if res.Stats.Pages == 0 {
				return nil, &IndexError{URL: indexURL, Err: err}
			}
			res.Stop = StopCancelled
			events.Warnf(e.sink, cur, "discovery cancelled after %d page(s)", res.Stats.Pages)
			break
		}

		visited[cur] = true

		page, err := e.fetcher.Fetch(ctx, cur)
		if err != nil {
			if res.Stats.Pages == 0 {
				return nil, &IndexError{URL: cur, Err: err}
			}
			res.Stop = StopFetchFailed
			if ctx.Err() != nil {
				res.Stop = StopCancelled
			}
			events.Warnf(e.sink, cur, "catalog page failed, keeping %d chapter(s) found so far: %s", len(res.All), fetch.Reason(err))
			break
		}
		res.Stats.Pages++

		base := cur
		if page.URL != "" {
			base = page.URL
		}

		if res.Stats.Pages == 1 {
			res.Meta = a.ExtractMeta(page.HTML, base)
		}

		e.collect(a, page.HTML, base, indexURL, seen, res)

		next, more := a.NextPageURL(page.HTML, base)
		if !more {
			res.Stop = StopExhausted
			break
		}

		next, err = util.NormalizeURL(next, base)
		if err != nil {
			events.Warnf(e.sink, base, "ignoring invalid next page link: %v", err)
			res.Stop = StopExhausted
			break
		}
		if visited[next] {
			res.Stop = StopCycle
			events.Warnf(e.sink, next, "pagination points back to a visited page, stopping")
			break
		}
		if res.Stats.Pages >= e.opts.MaxPages {
			res.Stop = StopPageLimit
			events.Warnf(e.sink, next, "reached the limit of %d catalog pages, some chapters may be missing", e.opts.MaxPages)
			break
		}

		events.Infof(e.sink, "Catalog page %d done, next %s", res.Stats.Pages, next)
		cur = next
	}

	chapters.Sort(res.All, a.Ordering())
	res.Selected = chapters.SelectRange(res.All, e.opts.Start, e.opts.End)
	res.Stats.Accepted = len(res.All)

	s := res.Stats
	events.Infof(e.sink, "Found %d chapter(s) on %d page(s): candidates %d, navigation %d, duplicate %d, invalid %d; selected %d",
		s.Accepted, s.Pages, s.Candidates, s.FilteredNav, s.FilteredDuplicate, s.FilteredInvalid, len(res.Selected))

	return res, nil
}

// collect classifies every candidate on one page into a filter bucket or
// the accepted list. Nothing is dropped without being counted.
func (e *Engine) collect(a providers.Adapter, pageHTML, base, indexURL string, seen map[string]bool, res *Result) {
	links, ok := a.ExtractChapterLinks(pageHTML, base)
	if !ok {
		events.Warnf(e.sink, base, "no chapter list found on this page")
		return
	}

	for _, l := range links {
		res.Stats.Candidates++

		norm, err := util.NormalizeURL(l.URL, base)
		if err != nil {
			res.Stats.FilteredInvalid++
			continue
		}
		if !a.IsChapterLink(norm, indexURL) {
			res.Stats.FilteredNav++
			continue
		}
		if seen[norm] {
			res.Stats.FilteredDuplicate++
			continue
		}

		seen[norm] = true
		l.URL = norm
		res.All = append(res.All, l)
	}
}
