package downloader

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/novelgrab/internal/cache"
	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/events"
	"github.com/brogergvhs/novelgrab/internal/fetch"
	"github.com/brogergvhs/novelgrab/internal/providers"
)

type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  []string
	jitter bool
	onGet  func(url string)
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*fetch.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	body, ok := f.bodies[url]
	f.mu.Unlock()

	if f.onGet != nil {
		f.onGet(url)
	}
	if f.jitter {
		time.Sleep(time.Duration(rand.Intn(15)) * time.Millisecond)
	}
	if err := ctx.Err(); err != nil {
		return nil, &fetch.FetchError{URL: url, Attempts: 1, Err: err}
	}
	if !ok {
		return nil, &fetch.FetchError{URL: url, Attempts: 3, Err: &fetch.StatusError{Code: 503}}
	}
	return &fetch.Page{URL: url, StatusCode: 200, HTML: body}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// pageAdapter uses the whole page as the body and "PAGE TITLE" as title.
type pageAdapter struct {
	cleanup providers.Cleanup
}

func (pageAdapter) Name() string                                              { return "page" }
func (pageAdapter) ResolveIndexURL(s providers.Seed) (string, error)          { return s.RawURL, nil }
func (pageAdapter) NextPageURL(string, string) (string, bool)                 { return "", false }
func (pageAdapter) ExtractChapterLinks(string, string) ([]chapters.Link, bool) { return nil, false }
func (pageAdapter) IsChapterLink(string, string) bool                         { return true }
func (pageAdapter) ExtractMeta(string, string) providers.Meta                 { return providers.Meta{} }
func (pageAdapter) Ordering() chapters.Ordering                               { return chapters.OrderDiscovery }
func (a pageAdapter) Cleanup() providers.Cleanup                              { return a.cleanup }

func (pageAdapter) ExtractContent(page string) (providers.Content, bool) {
	return providers.Content{Title: "PAGE TITLE", Body: page}, page != ""
}

func makeLinks(n int) []chapters.Link {
	out := make([]chapters.Link, n)
	for i := range out {
		out[i] = chapters.Link{URL: fmt.Sprintf("https://example.com/ch/%d", i+1), Title: fmt.Sprintf("第%d章", i+1)}
	}
	return out
}

func bodiesFor(links []chapters.Link) map[string]string {
	m := make(map[string]string, len(links))
	for i, l := range links {
		m[l.URL] = fmt.Sprintf("body %d", i+1)
	}
	return m
}

func noSleep(d *Downloader) *[]time.Duration {
	var slept []time.Duration
	d.sleep = func(ctx context.Context, dur time.Duration) error {
		slept = append(slept, dur)
		return ctx.Err()
	}
	return &slept
}

func TestDownload_PartialFailureContainment(t *testing.T) {
	links := makeLinks(5)
	bodies := bodiesFor(links)
	delete(bodies, links[2].URL)

	var evs []events.Event
	d := New(&fakeFetcher{bodies: bodies}, Options{Delay: time.Second}, events.Func(func(e events.Event) { evs = append(evs, e) }))
	noSleep(d)

	recs := d.Download(context.Background(), pageAdapter{}, links)
	require.Len(t, recs, 5)

	for i, r := range recs {
		assert.Equal(t, i+1, r.Index)
		assert.Equal(t, links[i].URL, r.Link.URL)
		if i == 2 {
			assert.Equal(t, chapters.StatusFailed, r.Status)
			assert.Empty(t, r.Body)
			assert.Equal(t, "http 503", r.Reason)
			continue
		}
		assert.Equal(t, chapters.StatusFetched, r.Status)
		assert.Equal(t, fmt.Sprintf("body %d", i+1), r.Body)
	}

	require.Len(t, evs, 5)
	assert.Equal(t, events.Warning, evs[2].Kind)
	assert.Equal(t, links[2].URL, evs[2].URL)
	assert.Equal(t, 3, evs[2].Chapter)
	assert.Equal(t, 5, evs[4].Done)
	assert.Equal(t, 5, evs[4].Total)
}

// countingDoer fails every request and counts attempts.
type countingDoer struct{ n atomic.Int32 }

func (c *countingDoer) Do(*http.Request) (*http.Response, error) {
	c.n.Add(1)
	return nil, fmt.Errorf("connection refused")
}

func TestDownload_RetryBound(t *testing.T) {
	doer := &countingDoer{}
	f := fetch.New(doer, fetch.Config{MaxRetries: 2, Backoff: -1}, nil)

	links := makeLinks(1)
	recs := New(f, Options{}, nil).Download(context.Background(), pageAdapter{}, links)

	require.Len(t, recs, 1)
	assert.Equal(t, chapters.StatusFailed, recs[0].Status)
	assert.Contains(t, recs[0].Reason, "connection refused")
	assert.EqualValues(t, 3, doer.n.Load())
}

func TestDownload_ExtractionEmpty(t *testing.T) {
	links := makeLinks(2)
	bodies := bodiesFor(links)
	bodies[links[0].URL] = ""
	bodies[links[1].URL] = "  \n\t "

	recs := New(&fakeFetcher{bodies: bodies}, Options{}, nil).Download(context.Background(), pageAdapter{}, links)
	for _, r := range recs {
		assert.Equal(t, chapters.StatusFailed, r.Status)
		assert.Equal(t, chapters.ReasonExtractionEmpty, r.Reason)
	}
}

func TestDownload_DelayBetweenRequestsOnly(t *testing.T) {
	links := makeLinks(3)
	d := New(&fakeFetcher{bodies: bodiesFor(links)}, Options{Delay: 250 * time.Millisecond}, nil)
	slept := noSleep(d)

	d.Download(context.Background(), pageAdapter{}, links)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, *slept)
}

func TestDownload_NormalizesAndTransforms(t *testing.T) {
	links := []chapters.Link{
		{URL: "https://example.com/ch/1", Title: "第1章 開始_站名小說網"},
		{URL: "https://example.com/ch/2", Title: ""},
	}
	bodies := map[string]string{
		links[0].URL: "  第一段  \n\n\n\n第二段\n分享到：微博",
		links[1].URL: "x",
	}
	a := pageAdapter{cleanup: providers.Cleanup{BodyPatterns: []*regexp.Regexp{regexp.MustCompile(`分享到：.*$`)}}}

	d := New(&fakeFetcher{bodies: bodies}, Options{Transform: strings.ToUpper}, nil)
	noSleep(d)
	recs := d.Download(context.Background(), a, links)

	assert.Equal(t, "第1章 開始", recs[0].Title)
	assert.Equal(t, "第一段\n\n第二段", recs[0].Body)
	assert.Equal(t, "PAGE TITLE", recs[1].Title, "falls back to the page title")
	assert.Equal(t, "X", recs[1].Body)
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]cache.Entry
}

func (c *mapCache) Get(_ context.Context, url string) (cache.Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[url]
	return e, ok, nil
}

func (c *mapCache) Put(_ context.Context, e cache.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[e.URL] = e
	return nil
}

func TestDownload_CacheSkipsNetworkAndDelay(t *testing.T) {
	links := makeLinks(3)
	bodies := bodiesFor(links)
	delete(bodies, links[2].URL)

	c := &mapCache{m: map[string]cache.Entry{}}
	f := &fakeFetcher{bodies: bodies}

	first := New(f, Options{Delay: time.Second, Cache: c}, nil)
	noSleep(first)
	first.Download(context.Background(), pageAdapter{}, links)

	assert.Len(t, c.m, 2, "failed chapters are not cached")

	f2 := &fakeFetcher{bodies: bodies}
	second := New(f2, Options{Delay: time.Second, Cache: c, Transform: strings.ToUpper}, nil)
	slept := noSleep(second)
	recs := second.Download(context.Background(), pageAdapter{}, links)

	assert.True(t, recs[0].Cached)
	assert.True(t, recs[1].Cached)
	assert.Equal(t, "BODY 1", recs[0].Body)
	assert.Equal(t, "body 1", c.m[links[0].URL].Body, "cache keeps untransformed text")
	assert.Equal(t, []string{links[2].URL}, f2.calls)
	assert.Empty(t, *slept, "no delay after the last network fetch and none for cache hits")
}

func TestDownload_CancelMarksRestSkipped(t *testing.T) {
	links := makeLinks(5)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeFetcher{bodies: bodiesFor(links), onGet: func(url string) {
		if url == links[1].URL {
			cancel()
		}
	}}
	var evs []events.Event
	d := New(f, Options{}, events.Func(func(e events.Event) { evs = append(evs, e) }))
	noSleep(d)

	recs := d.Download(ctx, pageAdapter{}, links)
	require.Len(t, recs, 5)

	assert.Equal(t, chapters.StatusFetched, recs[0].Status)
	for _, r := range recs[1:] {
		assert.Equal(t, chapters.StatusSkipped, r.Status)
		assert.Equal(t, chapters.ReasonCancelled, r.Reason)
	}
	assert.Equal(t, 2, f.callCount())

	perChapter := chapterEvents(evs)
	require.Len(t, perChapter, 5)
	for i, e := range perChapter {
		assert.Equal(t, i+1, e.Done)
		assert.Equal(t, 5, e.Total)
	}
	assert.Equal(t, events.Info, perChapter[4].Kind)

	last := evs[len(evs)-1]
	assert.Equal(t, events.Warning, last.Kind)
	assert.Equal(t, "cancelled, 4 chapter(s) not attempted", last.Message)
}

func TestDownload_ParallelCancelReportsEveryChapter(t *testing.T) {
	links := makeLinks(30)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var evs []events.Event
	sink := events.Func(func(e events.Event) {
		mu.Lock()
		evs = append(evs, e)
		mu.Unlock()
	})

	f := &fakeFetcher{bodies: bodiesFor(links), onGet: func(url string) {
		if url == links[4].URL {
			cancel()
		}
	}}
	recs := New(f, Options{Workers: 3}, sink).Download(ctx, pageAdapter{}, links)
	require.Len(t, recs, 30)

	skipped := 0
	for i, r := range recs {
		assert.Equal(t, i+1, r.Index)
		if r.Status == chapters.StatusSkipped {
			assert.Equal(t, chapters.ReasonCancelled, r.Reason)
			skipped++
			continue
		}
		assert.Equal(t, chapters.StatusFetched, r.Status)
	}
	assert.Positive(t, skipped)
	assert.Less(t, f.callCount(), 30)

	perChapter := chapterEvents(evs)
	require.Len(t, perChapter, 30)
	seen := map[int]bool{}
	for _, e := range perChapter {
		seen[e.Done] = true
		assert.Equal(t, 30, e.Total)
	}
	assert.Len(t, seen, 30)
	assert.True(t, seen[30], "progress reaches the total after cancellation")
	assert.Contains(t, evs[len(evs)-1].Message, fmt.Sprintf("cancelled, %d chapter(s) not attempted", skipped))
}

func chapterEvents(evs []events.Event) []events.Event {
	var out []events.Event
	for _, e := range evs {
		if e.Chapter > 0 {
			out = append(out, e)
		}
	}
	return out
}

func TestDownload_ParallelPreservesOrder(t *testing.T) {
	links := makeLinks(40)
	bodies := bodiesFor(links)
	delete(bodies, links[7].URL)

	var mu sync.Mutex
	var evs []events.Event
	sink := events.Func(func(e events.Event) {
		mu.Lock()
		evs = append(evs, e)
		mu.Unlock()
	})

	f := &fakeFetcher{bodies: bodies, jitter: true}
	recs := New(f, Options{Workers: 6}, sink).Download(context.Background(), pageAdapter{}, links)

	require.Len(t, recs, 40)
	for i, r := range recs {
		assert.Equal(t, i+1, r.Index)
		assert.Equal(t, links[i].URL, r.Link.URL)
		if i == 7 {
			assert.Equal(t, chapters.StatusFailed, r.Status)
		} else {
			assert.Equal(t, fmt.Sprintf("body %d", i+1), r.Body)
		}
	}
	assert.Len(t, evs, 40)
	assert.Equal(t, 40, f.callCount())
}

func TestDownload_ParallelSharesRateLimit(t *testing.T) {
	links := makeLinks(5)
	f := &fakeFetcher{bodies: bodiesFor(links)}

	start := time.Now()
	New(f, Options{Workers: 5, Delay: 20 * time.Millisecond}, nil).Download(context.Background(), pageAdapter{}, links)

	// five requests with one burst token need four intervals
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}
