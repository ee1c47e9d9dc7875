package generic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/providers"
)

const indexPage = `<html><head><title>站點 - 書名</title>
<meta property="og:image" content="/img/cover.jpg"></head>
<body>
<div class="mu_h1"><h1>星河旅人</h1></div>
<p>作者：<a href="/author/1">無名氏</a></p>
<a href="/">首頁</a>
<ul class="mulu_list">
  <li><a href="/book/9/102.html">第2章 出發</a></li>
  <li><a href="/book/9/101.html">第1章 序幕</a></li>
  <li><a href="/book/9/110.html"></a></li>
  <li><a href="https://other.example.com/book/1.html">外站</a></li>
</ul>
</body></html>`

func TestExtractChapterLinks(t *testing.T) {
	a := New()
	links, ok := a.ExtractChapterLinks(indexPage, "https://example.com/book/9/")
	require.True(t, ok)
	require.Len(t, links, 4, "only links inside ul.mulu_list are candidates")

	assert.Equal(t, "/book/9/102.html", links[0].URL)
	assert.Equal(t, "第2章 出發", links[0].Title)
	require.NotNil(t, links[0].Sequence)
	assert.Equal(t, 2, *links[0].Sequence)

	assert.Equal(t, "110", links[2].Title)
	require.NotNil(t, links[2].Sequence)
	assert.Equal(t, 110, *links[2].Sequence)
}

func TestExtractChapterLinks_NotFound(t *testing.T) {
	_, ok := New().ExtractChapterLinks("<html><body><p>nothing</p></body></html>", "https://example.com/")
	assert.False(t, ok)
}

func TestIsChapterLink(t *testing.T) {
	a := New()
	idx := "https://example.com/book/9/"

	assert.True(t, a.IsChapterLink("https://example.com/book/9/101.html", idx))
	assert.False(t, a.IsChapterLink("https://other.example.com/book/1.html", idx))
	assert.False(t, a.IsChapterLink("https://example.com/author/1", idx))
	assert.False(t, a.IsChapterLink("https://example.com/news/1.html", idx))
}

func TestExtractMeta(t *testing.T) {
	meta := New().ExtractMeta(indexPage, "https://example.com/book/9/")

	assert.Equal(t, "星河旅人", meta.Title)
	assert.Equal(t, "無名氏", meta.Author)
	assert.Equal(t, "https://example.com/img/cover.jpg", meta.CoverURL)
}

func TestExtractMeta_Fallbacks(t *testing.T) {
	meta := New().ExtractMeta(`<html><head><title>只有標題</title></head><body></body></html>`, "https://example.com/")

	assert.Equal(t, "只有標題", meta.Title)
	assert.Equal(t, UnknownAuthor, meta.Author)
	assert.Empty(t, meta.CoverURL)
}

func TestExtractContent(t *testing.T) {
	body := strings.Repeat("這是一段足夠長的正文。", 10)
	page := `<html><head><title>第1章 序幕</title></head><body>
<div class="nav">上一章 | 下一章</div>
<div id="content"><p>` + body + `</p><p>第二段</p></div></body></html>`

	c, ok := New().ExtractContent(page)
	require.True(t, ok)
	assert.Equal(t, "第1章 序幕", c.Title)
	assert.Equal(t, body+"\n\n第二段", c.Body)
}

func TestExtractContent_ShortCandidateFallsBackToBody(t *testing.T) {
	page := `<html><body><h1>標題</h1><div id="content">短</div><p>其他文字</p></body></html>`

	c, ok := New().ExtractContent(page)
	require.True(t, ok)
	assert.Equal(t, "標題", c.Title)
	assert.Contains(t, c.Body, "其他文字")
}

func TestSequence(t *testing.T) {
	assert.Equal(t, 12, *Sequence("第 12 章 雨", "/book/1/999.html"))
	assert.Equal(t, 999, *Sequence("序", "/book/1/999.html?x=1"))
	assert.Nil(t, Sequence("序", "/book/1/intro"))
}

func TestAdapterContract(t *testing.T) {
	var a providers.Adapter = New()
	assert.Equal(t, Name, a.Name())
	assert.Equal(t, chapters.OrderSequence, a.Ordering())

	idx, err := a.ResolveIndexURL(providers.Seed{RawURL: " https://Example.com/book/9/ "})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/book/9/", idx)

	_, more := a.NextPageURL(indexPage, idx)
	assert.False(t, more)
}
