package crawl

import (
	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/discovery"
	"github.com/brogergvhs/novelgrab/internal/providers"
)

type Cover struct {
	URL       string
	MediaType string
	Data      []byte
}

// Stats extends the discovery counters with download outcomes.
type Stats struct {
	discovery.Stats

	Fetched int
	Failed  int
	Skipped int
	Cached  int
}

type Result struct {
	SessionID string
	Seed      providers.Seed
	IndexURL  string

	Title    string
	Author   string
	Language string

	// Chapters holds one record per selected chapter in discovered order,
	// failed and skipped ones included.
	Chapters []chapters.Record
	Cover    *Cover

	Stats Stats
	Stop  discovery.StopReason
}

// Empty reports whether discovery found no chapters at all. A catalog whose
// chapters all fall outside the requested range is not empty: Chapters is
// then empty while Stats.Accepted is not.
func (r *Result) Empty() bool { return r.Stats.Accepted == 0 }

// Complete reports whether the catalog was read to its end and every
// selected chapter was fetched.
func (r *Result) Complete() bool {
	return !r.Stop.Partial() && r.Stats.Failed == 0 && r.Stats.Skipped == 0
}

func (r *Result) tally() {
	r.Stats.Fetched, r.Stats.Failed, r.Stats.Skipped, r.Stats.Cached = 0, 0, 0, 0
	for _, c := range r.Chapters {
		switch c.Status {
		case chapters.StatusFetched:
			r.Stats.Fetched++
			if c.Cached {
				r.Stats.Cached++
			}
		case chapters.StatusFailed:
			r.Stats.Failed++
		case chapters.StatusSkipped:
			r.Stats.Skipped++
		}
	}
}
