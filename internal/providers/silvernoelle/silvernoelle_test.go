package silvernoelle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/novelgrab/internal/chapters"
)

const base = "https://silvernoelle.com/category/novel-x/"

const archivePage = `<html><head><title>novel-x – Silvernoelle</title></head><body>
<h1 class="archive-title">分类：<span>星之海</span></h1>
<article>
  <h2 class="entry-title"><a href="https://silvernoelle.com/2024/01/03/ch3/">第三章</a></h2>
  <time class="entry-date" datetime="2024-01-03T10:00:00+08:00">1月3日</time>
  <a href="https://silvernoelle.com/category/novel-x/">novel-x</a>
</article>
<article>
  <h2 class="entry-title"><a href="/2024/01/01/ch1/">第一章</a></h2>
  <time datetime="2024-01-01T10:00:00+08:00"></time>
</article>
<article>
  <a rel="bookmark" href="/2024/01/02/ch2/">第二章</a>
  <time datetime="2024-01-02">1月2日</time>
</article>
<div class="nav-links"><div class="nav-previous"><a href="/category/novel-x/page/2/">较旧文章</a></div></div>
</body></html>`

func TestExtractChapterLinks(t *testing.T) {
	links, ok := New().ExtractChapterLinks(archivePage, base)
	require.True(t, ok)
	require.Len(t, links, 3)

	assert.Equal(t, "https://silvernoelle.com/2024/01/03/ch3/", links[0].URL)
	assert.Equal(t, "第三章", links[0].Title)
	require.NotNil(t, links[0].Published)
	assert.Equal(t, 2024, links[0].Published.Year())

	assert.Equal(t, "/2024/01/02/ch2/", links[2].URL)
	require.NotNil(t, links[2].Published)

	chapters.Sort(links, New().Ordering())
	assert.Equal(t, "第一章", links[0].Title)
	assert.Equal(t, "第二章", links[1].Title)
	assert.Equal(t, "第三章", links[2].Title)
}

func TestOrdering_UndatedArchiveIsReversed(t *testing.T) {
	page := `<html><body>
<article><h2 class="entry-title"><a href="/2024/01/03/ch3/">第三章</a></h2></article>
<article><h2 class="entry-title"><a href="/2024/01/02/ch2/">第二章</a></h2></article>
<article><h2 class="entry-title"><a href="/2024/01/01/ch1/">第一章</a></h2></article>
</body></html>`
	links, ok := New().ExtractChapterLinks(page, base)
	require.True(t, ok)
	require.Len(t, links, 3)

	chapters.Sort(links, New().Ordering())
	assert.Equal(t, "第一章", links[0].Title)
	assert.Equal(t, "第三章", links[2].Title)
}

func TestExtractChapterLinks_NoArticles(t *testing.T) {
	_, ok := New().ExtractChapterLinks("<html><body>empty</body></html>", base)
	assert.False(t, ok)
}

func TestNextPageURL(t *testing.T) {
	a := New()

	next, ok := a.NextPageURL(archivePage, base)
	require.True(t, ok)
	assert.Equal(t, "https://silvernoelle.com/category/novel-x/page/2/", next)

	byText := `<a href="?paged=3">Older Posts</a>`
	next, ok = a.NextPageURL(byText, base)
	require.True(t, ok)
	assert.Equal(t, "https://silvernoelle.com/category/novel-x/?paged=3", next)

	byRel := `<a rel="next" href="/category/novel-x/page/4/">»</a>`
	next, ok = a.NextPageURL(byRel, base)
	require.True(t, ok)
	assert.Equal(t, "https://silvernoelle.com/category/novel-x/page/4/", next)

	_, ok = a.NextPageURL(`<a href="/about/">About</a>`, base)
	assert.False(t, ok)
}

func TestIsChapterLink(t *testing.T) {
	a := New()
	assert.True(t, a.IsChapterLink("https://silvernoelle.com/2024/01/01/ch1/", base))
	assert.False(t, a.IsChapterLink(base, base))
	assert.False(t, a.IsChapterLink("https://silvernoelle.com/category/novel-x/page/2/", base))
	assert.False(t, a.IsChapterLink("https://silvernoelle.com/tag/fantasy/", base))
	assert.False(t, a.IsChapterLink("https://twitter.com/share", base))
}

func TestExtractMeta(t *testing.T) {
	meta := New().ExtractMeta(archivePage, base)
	assert.Equal(t, "星之海", meta.Title)
	assert.Equal(t, Author, meta.Author)
}

func TestExtractContent(t *testing.T) {
	page := `<html><body>
<h1 class="entry-title">第一章 啟程</h1>
<div class="entry-content">
  <p>第一段。</p>
  <p>第二段。</p>
  <div class="sharedaddy"><h3>分享</h3><a href="#">Twitter</a></div>
  <p>共享此文章：</p><p>Facebook</p>
</div></body></html>`

	c, ok := New().ExtractContent(page)
	require.True(t, ok)
	assert.Equal(t, "第一章 啟程", c.Title)
	assert.Equal(t, "第一段。\n\n第二段。", c.Body)
}

func TestExtractContent_FallsBackToGeneric(t *testing.T) {
	page := `<html><head><title>散文</title></head><body><div id="content">短短的正文</div></body></html>`

	c, ok := New().ExtractContent(page)
	require.True(t, ok)
	assert.Equal(t, "散文", c.Title)
	assert.Contains(t, c.Body, "短短的正文")
}
