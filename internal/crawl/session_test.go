package crawl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/discovery"
	"github.com/brogergvhs/novelgrab/internal/downloader"
	"github.com/brogergvhs/novelgrab/internal/events"
	"github.com/brogergvhs/novelgrab/internal/fetch"
	"github.com/brogergvhs/novelgrab/internal/providers/sites"
	"github.com/brogergvhs/novelgrab/internal/text"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

const indexPage = `<html><head><title>站點</title></head><body>
<div class="mu_h1"><h1>測試小說</h1></div>
<p>作者：<a href="/author/1.html">某人</a></p>
<img class="book-cover" src="/cover.png">
<ul class="mulu_list">
  <li><a href="/book/3.html">第3章 終</a></li>
  <li><a href="/book/1.html">第1章 起</a></li>
  <li><a href="/book/2.html">第2章 承</a></li>
  <li><a href="/about.html">關於</a></li>
  <li><a href="/book/2.html">第2章 承</a></li>
</ul>
</body></html>`

func chapterPage(n int) string {
	return fmt.Sprintf(`<html><head><title>第%d章</title></head><body>
<div id="nav">目錄</div>
<div id="content"><p>%s</p><p>第二段。</p></div>
</body></html>`, n, strings.Repeat(fmt.Sprintf("第%d章的正文內容。", n), 10))
}

func novelServer(t *testing.T, failing map[string]bool) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing[r.URL.Path] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}

		switch r.URL.Path {
		case "/book/index.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, indexPage)
		case "/book/1.html", "/book/2.html", "/book/3.html":
			var n int
			fmt.Sscanf(r.URL.Path, "/book/%d.html", &n)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, chapterPage(n))
		case "/cover.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(pngBytes)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newSession(srv *httptest.Server, sink events.Sink) *Session {
	f := fetch.New(srv.Client(), fetch.Config{MaxRetries: 1, Backoff: -1}, nil)
	return NewSession(sites.Default(), f, Options{Language: "zh-Hant"}, sink)
}

func TestRun_FullCrawl(t *testing.T) {
	srv := novelServer(t, map[string]bool{"/book/2.html": true})

	var warnings []events.Event
	sink := events.Func(func(e events.Event) {
		if e.Kind == events.Warning {
			warnings = append(warnings, e)
		}
	})

	res, err := newSession(srv, sink).Run(context.Background(), srv.URL+"/book/index.html")
	require.NoError(t, err)

	_, err = uuid.Parse(res.SessionID)
	assert.NoError(t, err)

	assert.Equal(t, "測試小說", res.Title)
	assert.Equal(t, "某人", res.Author)
	assert.Equal(t, "zh-Hant", res.Language)
	assert.Equal(t, "generic", res.Seed.Kind)
	assert.Equal(t, discovery.StopExhausted, res.Stop)

	require.Len(t, res.Chapters, 3)
	for i, c := range res.Chapters {
		assert.Equal(t, i+1, c.Index)
	}
	assert.Equal(t, "第1章 起", res.Chapters[0].Title)
	assert.Contains(t, res.Chapters[0].Body, "第1章的正文內容")
	assert.Contains(t, res.Chapters[0].Body, "第二段。")
	assert.NotContains(t, res.Chapters[0].Body, "目錄")
	assert.Equal(t, chapters.StatusFailed, res.Chapters[1].Status)
	assert.Empty(t, res.Chapters[1].Body)
	assert.Equal(t, chapters.StatusFetched, res.Chapters[2].Status)

	assert.Equal(t, 5, res.Stats.Candidates)
	assert.Equal(t, 3, res.Stats.Accepted)
	assert.Equal(t, 1, res.Stats.FilteredNav)
	assert.Equal(t, 1, res.Stats.FilteredDuplicate)
	assert.Equal(t, 2, res.Stats.Fetched)
	assert.Equal(t, 1, res.Stats.Failed)
	assert.False(t, res.Complete())
	assert.False(t, res.Empty())

	fetched := res.Fetched()
	require.Len(t, fetched, 2)
	assert.Equal(t, 1, fetched[0].Index)
	assert.Equal(t, 3, fetched[1].Index)

	require.NotNil(t, res.Cover)
	assert.Equal(t, "image/png", res.Cover.MediaType)
	assert.Equal(t, pngBytes, res.Cover.Data)

	require.NotEmpty(t, warnings)
	found := false
	for _, w := range warnings {
		if strings.HasSuffix(w.URL, "/book/2.html") {
			found = true
		}
	}
	assert.True(t, found, "failed chapter is reported with its url")
}

func TestRun_RangeAndTransform(t *testing.T) {
	srv := novelServer(t, nil)

	f := fetch.New(srv.Client(), fetch.Config{Backoff: -1}, nil)
	s := NewSession(sites.Default(), f, Options{
		Discovery: discovery.Options{Start: 2, End: 3},
		SkipCover: true,
	}, nil)
	s.opts.Download.Transform = func(v string) string { return "[" + v + "]" }

	res, err := s.Run(context.Background(), srv.URL+"/book/index.html")
	require.NoError(t, err)

	require.Len(t, res.Chapters, 2)
	assert.Equal(t, "[第2章 承]", res.Chapters[0].Title)
	assert.Equal(t, "[第3章 終]", res.Chapters[1].Title)
	assert.Equal(t, "[測試小說]", res.Title)
	assert.Nil(t, res.Cover)
	assert.True(t, res.Complete())
}

func TestRun_SimplifiedConversion(t *testing.T) {
	index := strings.Replace(indexPage, "某人", "無名氏", 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/book/index.html":
			fmt.Fprint(w, index)
		case "/book/1.html", "/book/2.html", "/book/3.html":
			var n int
			fmt.Sscanf(r.URL.Path, "/book/%d.html", &n)
			fmt.Fprint(w, chapterPage(n))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t2s, err := text.Simplified()
	require.NoError(t, err)

	f := fetch.New(srv.Client(), fetch.Config{Backoff: -1}, nil)
	s := NewSession(sites.Default(), f, Options{
		Download:  downloader.Options{Transform: t2s},
		SkipCover: true,
	}, nil)

	res, err := s.Run(context.Background(), srv.URL+"/book/index.html")
	require.NoError(t, err)

	assert.Equal(t, "测试小说", res.Title)
	assert.Equal(t, "无名氏", res.Author)
	require.Len(t, res.Chapters, 3)
	assert.Equal(t, "第1章 起", res.Chapters[0].Title)
	assert.Equal(t, "第3章 终", res.Chapters[2].Title)
	assert.Contains(t, res.Chapters[0].Body, "第1章的正文内容。")
	assert.NotContains(t, res.Chapters[0].Body, "內容")
}

func TestRun_RangePastEnd(t *testing.T) {
	srv := novelServer(t, nil)

	f := fetch.New(srv.Client(), fetch.Config{Backoff: -1}, nil)
	s := NewSession(sites.Default(), f, Options{
		Discovery: discovery.Options{Start: 10},
		SkipCover: true,
	}, nil)

	res, err := s.Run(context.Background(), srv.URL+"/book/index.html")
	require.NoError(t, err)

	assert.Equal(t, 3, res.Stats.Accepted)
	assert.Empty(t, res.Chapters)
	assert.False(t, res.Empty())
	assert.Zero(t, res.Stats.Fetched)
}

func TestRun_IndexFailureIsFatal(t *testing.T) {
	srv := novelServer(t, map[string]bool{"/book/index.html": true})

	res, err := newSession(srv, nil).Run(context.Background(), srv.URL+"/book/index.html")
	require.Error(t, err)
	assert.Nil(t, res)

	var ie *discovery.IndexError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, srv.URL+"/book/index.html", ie.URL)

	var fe *fetch.FetchError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, 2, fe.Attempts)
}

func TestRun_InvalidSeed(t *testing.T) {
	s := NewSession(sites.Default(), fetch.New(nil, fetch.Config{}, nil), Options{}, nil)

	_, err := s.Run(context.Background(), "javascript:alert(1)")
	assert.Error(t, err)
}

func TestRun_EmptyCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>空</h1><a href="/about.html">關於</a></body></html>`)
	}))
	defer srv.Close()

	res, err := newSession(srv, nil).Run(context.Background(), srv.URL+"/book/index.html")
	require.NoError(t, err)

	assert.True(t, res.Empty())
	assert.Equal(t, "空", res.Title)
	assert.Equal(t, 1, res.Stats.Candidates)
	assert.Equal(t, 1, res.Stats.FilteredNav)
}

func TestRun_UntitledFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body></body></html>`)
	}))
	defer srv.Close()

	res, err := newSession(srv, nil).Run(context.Background(), srv.URL+"/book/index.html")
	require.NoError(t, err)
	assert.Equal(t, UntitledNovel, res.Title)
}
