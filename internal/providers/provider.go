package providers

import (
	"errors"
	"regexp"

	"github.com/brogergvhs/novelgrab/internal/chapters"
)

// ErrNoNovelID is returned by ResolveIndexURL when a site needs a novel id
// in the seed URL and none could be found.
var ErrNoNovelID = errors.New("no novel id in url")

// Seed is the user supplied starting URL together with the adapter kind
// the registry picked for it.
type Seed struct {
	RawURL string
	Kind   string
}

type Meta struct {
	Title    string
	Author   string
	CoverURL string // absolute, empty when none was found
}

type Content struct {
	Title string
	Body  string
}

// Cleanup lists site boilerplate removed from chapter titles and bodies
// after extraction.
type Cleanup struct {
	TitlePatterns []*regexp.Regexp
	BodyPatterns  []*regexp.Regexp
}

// Adapter holds the site specific rules used by discovery and the chapter
// downloader. Parse failures are reported through the bool results and
// never as errors; callers treat them as "nothing found".
type Adapter interface {
	Name() string

	// ResolveIndexURL returns the canonical chapter index page for seed.
	ResolveIndexURL(seed Seed) (string, error)

	// NextPageURL returns the next catalog page after currentURL, if any.
	NextPageURL(pageHTML, currentURL string) (string, bool)

	// ExtractChapterLinks returns raw chapter candidates from a catalog
	// page. Link.URL is the href as found; callers normalize it.
	ExtractChapterLinks(pageHTML, currentURL string) ([]chapters.Link, bool)

	// IsChapterLink reports whether a normalized candidate URL points at a
	// chapter rather than navigation.
	IsChapterLink(linkURL, indexURL string) bool

	ExtractMeta(indexHTML, indexURL string) Meta

	ExtractContent(chapterHTML string) (Content, bool)

	Ordering() chapters.Ordering

	Cleanup() Cleanup
}

// CoverPager is implemented by adapters whose cover image lives on a page
// other than the chapter index.
type CoverPager interface {
	CoverPageURL(seed Seed) (string, bool)
}
