package providers

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/brogergvhs/novelgrab/internal/util"
)

// Predicate reports whether a site handles the given (normalized) URL.
type Predicate func(u *url.URL) bool

type Factory func() Adapter

type entry struct {
	name    string
	match   Predicate
	factory Factory
}

// Registry maps URL predicates to adapters. Entries are tried in
// registration order and the fallback handles everything else.
type Registry struct {
	entries  []entry
	fallback entry
}

func NewRegistry(fallbackName string, fallback Factory) *Registry {
	return &Registry{fallback: entry{name: fallbackName, factory: fallback}}
}

func (r *Registry) Register(name string, match Predicate, factory Factory) {
	r.entries = append(r.entries, entry{name: name, match: match, factory: factory})
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.entries)+1)
	for _, e := range r.entries {
		out = append(out, e.name)
	}
	return append(out, r.fallback.name)
}

// Select normalizes rawURL and returns the adapter responsible for it.
func (r *Registry) Select(rawURL string) (Adapter, Seed, error) {
	norm, err := util.NormalizeURL(rawURL, "")
	if err != nil {
		return nil, Seed{}, err
	}

	u, err := url.Parse(norm)
	if err != nil {
		return nil, Seed{}, fmt.Errorf("%w: %v", util.ErrInvalidURL, err)
	}

	for _, e := range r.entries {
		if e.match(u) {
			return e.factory(), Seed{RawURL: norm, Kind: e.name}, nil
		}
	}

	if r.fallback.factory == nil {
		return nil, Seed{}, fmt.Errorf("no adapter for %s", norm)
	}

	return r.fallback.factory(), Seed{RawURL: norm, Kind: r.fallback.name}, nil
}

// HostContains matches URLs whose host contains fragment.
func HostContains(fragment string) Predicate {
	fragment = strings.ToLower(fragment)
	return func(u *url.URL) bool {
		return strings.Contains(strings.ToLower(u.Hostname()), fragment)
	}
}

// PathSuffix matches URLs whose path ends in one of suffixes.
func PathSuffix(suffixes ...string) Predicate {
	return func(u *url.URL) bool {
		p := strings.ToLower(u.Path)
		for _, s := range suffixes {
			if strings.HasSuffix(p, s) {
				return true
			}
		}
		return false
	}
}
