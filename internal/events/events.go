// Package events carries structured progress and log events from the crawl
// pipeline to whatever renders them. Core packages never print directly.
package events

import (
	"fmt"
	"sync"
)

type Kind int

const (
	Info Kind = iota
	Success
	Warning
	Error
)

func (k Kind) String() string {
	switch k {
	case Info:
		return "info"
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a single progress or log record. Chapter is the 1-based position
// in the selected chapter list, 0 when the event is not about a chapter.
// Done and Total carry running counts for progress rendering.
type Event struct {
	Kind    Kind
	Chapter int
	URL     string
	Message string
	Done    int
	Total   int
}

type Sink interface {
	Emit(Event)
}

// Func adapts a plain function to a Sink.
type Func func(Event)

func (f Func) Emit(e Event) { f(e) }

type discard struct{}

func (discard) Emit(Event) {}

// Discard drops every event.
var Discard Sink = discard{}

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Locked serialises Emit calls so a sink that is not safe for concurrent
// use can be shared by parallel workers.
func Locked(s Sink) Sink {
	if _, ok := s.(*locked); ok {
		return s
	}
	return &locked{next: OrDiscard(s)}
}

type locked struct {
	mu   sync.Mutex
	next Sink
}

func (l *locked) Emit(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next.Emit(e)
}

type multi []Sink

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Multi fans each event out to all non-nil sinks, in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Channel is a sink backed by a buffered channel. Emit blocks when the
// buffer is full, so the consumer must keep draining C until Close.
type Channel struct {
	C chan Event

	mu     sync.Mutex
	closed bool
}

func NewChannel(buffer int) *Channel {
	return &Channel{C: make(chan Event, buffer)}
}

func (c *Channel) Emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.C <- e
}

// Close stops delivery and closes C. Events emitted afterwards are dropped.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.C)
}

// Helpers used by the pipeline packages.

func Infof(s Sink, format string, args ...any) {
	s.Emit(Event{Kind: Info, Message: fmt.Sprintf(format, args...)})
}

func Warnf(s Sink, url string, format string, args ...any) {
	s.Emit(Event{Kind: Warning, URL: url, Message: fmt.Sprintf(format, args...)})
}
