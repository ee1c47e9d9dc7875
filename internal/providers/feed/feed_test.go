package feed

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/novelgrab/internal/chapters"
)

const rss = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
  <title>夜航船</title>
  <link>https://blog.example.com/</link>
  <image><url>https://blog.example.com/cover.png</url><title>t</title><link>https://blog.example.com/</link></image>
  <item>
    <title>第三章</title>
    <link>https://blog.example.com/2024/03/ch3/</link>
    <pubDate>Wed, 03 Jan 2024 10:00:00 +0000</pubDate>
  </item>
  <item>
    <title>第一章</title>
    <link>https://blog.example.com/2024/01/ch1/</link>
    <pubDate>Mon, 01 Jan 2024 10:00:00 +0000</pubDate>
  </item>
  <item>
    <title>第二章</title>
    <link>https://blog.example.com/2024/02/ch2/</link>
    <pubDate>Tue, 02 Jan 2024 10:00:00 +0000</pubDate>
  </item>
</channel>
</rss>`

func TestExtractChapterLinks(t *testing.T) {
	a := New()
	links, ok := a.ExtractChapterLinks(rss, "https://blog.example.com/feed/")
	require.True(t, ok)
	require.Len(t, links, 3)
	require.NotNil(t, links[0].Published)

	chapters.Sort(links, a.Ordering())

	assert.Equal(t, "第一章", links[0].Title)
	assert.Equal(t, "第二章", links[1].Title)
	assert.Equal(t, "https://blog.example.com/2024/03/ch3/", links[2].URL)
}

func TestExtractChapterLinks_NotAFeed(t *testing.T) {
	_, ok := New().ExtractChapterLinks("<html><body>nope</body></html>", "https://blog.example.com/feed/")
	assert.False(t, ok)
}

func TestExtractMeta(t *testing.T) {
	meta := New().ExtractMeta(rss, "https://blog.example.com/feed/")
	assert.Equal(t, "夜航船", meta.Title)
	assert.Equal(t, "Unknown Author", meta.Author)
	assert.Equal(t, "https://blog.example.com/cover.png", meta.CoverURL)
}

func TestExtractContent(t *testing.T) {
	page := `<html><body><h1 class="entry-title">第一章</h1>
<div class="entry-content"><p>正文第一段</p><p>正文第二段</p></div></body></html>`

	c, ok := New().ExtractContent(page)
	require.True(t, ok)
	assert.Equal(t, "第一章", c.Title)
	assert.Contains(t, c.Body, "正文第一段")
}

func TestMatch(t *testing.T) {
	for _, raw := range []string{"https://a.example.com/feed/", "https://a.example.com/x.rss", "https://a.example.com/atom.xml"} {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.True(t, Match(u), raw)
	}

	u, _ := url.Parse("https://a.example.com/book/1.html")
	assert.False(t, Match(u))
}
