package chapters

import (
	"cmp"
	"slices"
)

// Ordering is declared by each site adapter and applied once after
// discovery has finished.
type Ordering int

const (
	// OrderDiscovery keeps the order links were found in.
	OrderDiscovery Ordering = iota
	// OrderChronological sorts by publish time, oldest first.
	OrderChronological
	// OrderSequence sorts by the chapter number parsed from the title or URL.
	OrderSequence
	// OrderNewestFirst is for catalogs that list the latest post first.
	// Links are reversed, then sorted by publish time like OrderChronological.
	OrderNewestFirst
)

func (o Ordering) String() string {
	switch o {
	case OrderChronological:
		return "chronological"
	case OrderSequence:
		return "sequence"
	case OrderNewestFirst:
		return "newest-first"
	default:
		return "discovery"
	}
}

// Sort reorders links in place according to o. The sort is stable and
// links without the sort key keep their relative order after all keyed ones.
func Sort(links []Link, o Ordering) {
	switch o {
	case OrderNewestFirst:
		slices.Reverse(links)
		sortByPublished(links)
	case OrderChronological:
		sortByPublished(links)
	case OrderSequence:
		slices.SortStableFunc(links, func(a, b Link) int {
			switch {
			case a.Sequence == nil && b.Sequence == nil:
				return 0
			case a.Sequence == nil:
				return 1
			case b.Sequence == nil:
				return -1
			}
			return cmp.Compare(*a.Sequence, *b.Sequence)
		})
	}
}

func sortByPublished(links []Link) {
	slices.SortStableFunc(links, func(a, b Link) int {
		switch {
		case a.Published == nil && b.Published == nil:
			return 0
		case a.Published == nil:
			return 1
		case b.Published == nil:
			return -1
		}
		return a.Published.Compare(*b.Published)
	})
}

// SelectRange returns the 1-indexed inclusive range [start, end] of all.
// start below 1 is treated as 1 and end 0 means "to the last chapter".
func SelectRange(all []Link, start, end int) []Link {
	if start < 1 {
		start = 1
	}
	if end <= 0 || end > len(all) {
		end = len(all)
	}
	if start > end {
		return []Link{}
	}

	out := make([]Link, end-start+1)
	copy(out, all[start-1:end])
	return out
}
