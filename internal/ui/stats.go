package ui

import (
	"fmt"
	"sync/atomic"

	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/events"
	"github.com/brogergvhs/novelgrab/internal/util"
)

type Stats struct {
	Chapters atomic.Int64
	Failed   atomic.Int64
	Cached   atomic.Int64
	Bytes    atomic.Int64
}

// Emit counts per-chapter outcomes as they are reported.
func (s *Stats) Emit(e events.Event) {
	if e.Chapter == 0 || e.Total == 0 {
		return
	}

	switch e.Kind {
	case events.Success:
		s.Chapters.Add(1)
	case events.Warning, events.Error:
		s.Failed.Add(1)
	}
}

// AddRecords adds text size and cache hits of fetched chapters.
func (s *Stats) AddRecords(recs []chapters.Record) {
	for _, r := range recs {
		if !r.OK() {
			continue
		}
		s.Bytes.Add(int64(len(r.Body)))
		if r.Cached {
			s.Cached.Add(1)
		}
	}
}

func (s *Stats) Summary() string {
	return fmt.Sprintf("%d chapter(s) fetched (%d from cache), %d failed, %s of text",
		s.Chapters.Load(), s.Cached.Load(), s.Failed.Load(), util.Human(s.Bytes.Load()))
}
