// Package sites wires every built-in adapter into a registry.
package sites

import (
	"github.com/brogergvhs/novelgrab/internal/providers"
	"github.com/brogergvhs/novelgrab/internal/providers/alicesw"
	"github.com/brogergvhs/novelgrab/internal/providers/feed"
	"github.com/brogergvhs/novelgrab/internal/providers/generic"
	"github.com/brogergvhs/novelgrab/internal/providers/silvernoelle"
)

func Default() *providers.Registry {
	r := providers.NewRegistry(generic.Name, func() providers.Adapter { return generic.New() })
	r.Register(alicesw.Name, alicesw.Match, func() providers.Adapter { return alicesw.New() })
	r.Register(silvernoelle.Name, silvernoelle.Match, func() providers.Adapter { return silvernoelle.New() })
	r.Register(feed.Name, feed.Match, func() providers.Adapter { return feed.New() })
	return r
}
