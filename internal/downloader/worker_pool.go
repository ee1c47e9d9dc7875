package downloader

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/providers"
)

// downloadParallel fetches with a bounded pool. Requests from all workers
// share one limiter so the aggregate rate stays within Delay, and each
// result is written to its original index so completion timing never
// changes the order. Once ctx is cancelled the remaining links still pass
// through the pool, each one reported as skipped, so Done reaches Total.
func (d *Downloader) downloadParallel(ctx context.Context, a providers.Adapter, links []chapters.Link) []chapters.Record {
	records := make([]chapters.Record, len(links))
	total := len(links)

	limit := rate.Inf
	if d.opts.Delay > 0 {
		limit = rate.Every(d.opts.Delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	var (
		g    errgroup.Group
		done atomic.Int32
	)
	g.SetLimit(d.opts.Workers)

	for i, l := range links {
		g.Go(func() error {
			if ctx.Err() != nil {
				records[i] = chapters.Skipped(i+1, l, chapters.ReasonCancelled)
				d.report(records[i], int(done.Add(1)), total)
				return nil
			}

			rec, _ := d.one(ctx, a, i, l, limiter.Wait)
			records[i] = rec
			d.report(rec, int(done.Add(1)), total)
			return nil
		})
	}

	_ = g.Wait()
	d.warnCancelled(records)
	return records
}
