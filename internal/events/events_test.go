package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	got []Event
}

func (r *recorder) Emit(e Event) { r.got = append(r.got, e) }

func TestMulti_FansOutInOrder(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	s := Multi(a, nil, b)

	s.Emit(Event{Kind: Info, Message: "one"})
	s.Emit(Event{Kind: Warning, URL: "https://example.com/1.html", Message: "two"})

	require.Len(t, a.got, 2)
	assert.Equal(t, a.got, b.got)
	assert.Equal(t, "two", a.got[1].Message)
}

func TestLocked_SerialisesConcurrentEmitters(t *testing.T) {
	r := &recorder{}
	s := Locked(r)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Emit(Event{Chapter: i + 1})
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.got, 50)
	assert.Same(t, s, Locked(s))
}

func TestChannel_DropsAfterClose(t *testing.T) {
	c := NewChannel(4)
	c.Emit(Event{Message: "a"})
	c.Close()
	c.Emit(Event{Message: "b"})
	c.Close()

	var got []string
	for e := range c.C {
		got = append(got, e.Message)
	}
	assert.Equal(t, []string{"a"}, got)
}

func TestHelpers(t *testing.T) {
	var got []Event
	s := Func(func(e Event) { got = append(got, e) })

	Infof(s, "found %d chapters", 3)
	Warnf(s, "https://example.com/x", "retry %d", 1)
	OrDiscard(nil).Emit(Event{})

	require.Len(t, got, 2)
	assert.Equal(t, Info, got[0].Kind)
	assert.Equal(t, "found 3 chapters", got[0].Message)
	assert.Equal(t, Warning, got[1].Kind)
	assert.Equal(t, "https://example.com/x", got[1].URL)
	assert.Equal(t, "warning", got[1].Kind.String())
}
