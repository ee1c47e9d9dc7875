// Package alicesw is the adapter for alicesw book pages. A seed may be the
// novel page or any chapter list page; both are rewritten to the full
// chapter list by novel id.
package alicesw

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/brogergvhs/novelgrab/internal/providers"
	"github.com/brogergvhs/novelgrab/internal/providers/generic"
	"github.com/brogergvhs/novelgrab/internal/util"
)

const Name = "alicesw"

var (
	reNovelID = []*regexp.Regexp{
		regexp.MustCompile(`/novel/(\d+)\.html`),
		regexp.MustCompile(`/other/chapters/id/(\d+)\.html`),
	}

	cleanup = providers.Cleanup{
		TitlePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)[\s_\-]*(?:愛麗絲書屋|ALICESW\.COM).*$`),
		},
	}
)

// Match selects this adapter for alicesw hosts.
var Match = providers.HostContains("alicesw")

// Adapter reuses the generic catalog rules and only changes how the index
// and cover pages are located.
type Adapter struct {
	generic.Adapter
}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return Name }

func (a *Adapter) ResolveIndexURL(seed providers.Seed) (string, error) {
	u, id, err := novelID(seed.RawURL)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s://%s/other/chapters/id/%s.html", u.Scheme, u.Host, id), nil
}

func (a *Adapter) CoverPageURL(seed providers.Seed) (string, bool) {
	u, id, err := novelID(seed.RawURL)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s://%s/novel/%s.html", u.Scheme, u.Host, id), true
}

func (a *Adapter) Cleanup() providers.Cleanup { return cleanup }

func novelID(raw string) (*url.URL, string, error) {
	norm, err := util.NormalizeURL(raw, "")
	if err != nil {
		return nil, "", err
	}

	u, err := url.Parse(norm)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", util.ErrInvalidURL, err)
	}

	for _, re := range reNovelID {
		if m := re.FindStringSubmatch(u.Path); m != nil {
			return u, m[1], nil
		}
	}

	return nil, "", fmt.Errorf("%w: %s", providers.ErrNoNovelID, norm)
}
