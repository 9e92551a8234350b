package telemetry

import (
	"io"
	"sync"
	"time"
)

// TimingCollector builds a tree of timed operations. The first timer started
// becomes the root; later top-level timers nest under whichever timer is
// still running.
type TimingCollector struct {
	mu      sync.Mutex
	now     func() time.Time
	root    *span
	current *span
}

type span struct {
	name     string
	start    time.Time
	end      time.Time
	parent   *span
	children []*span
}

func (s *span) duration() time.Duration {
	if s.end.IsZero() {
		return 0
	}
	return s.end.Sub(s.start)
}

// NewTimingCollector returns an empty collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{now: time.Now}
}

// Start begins timing name under the running timer, if any.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &span{name: name, start: c.now()}
	if c.root == nil {
		c.root = s
	} else {
		s.parent = c.current
		c.current.children = append(c.current.children, s)
	}
	c.current = s
	return &timer{c: c, s: s}
}

// Report writes the timing tree to w.
func (c *TimingCollector) Report(w io.Writer, styles Styler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.root == nil {
		return
	}
	writeTree(w, c.root, styles)
}

type timer struct {
	c *TimingCollector
	s *span
}

func (t *timer) End() {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()

	if !t.s.end.IsZero() {
		return
	}
	t.s.end = t.c.now()
	if t.c.current == t.s && t.s.parent != nil {
		t.c.current = t.s.parent
	}
}

func (t *timer) Child(name string) Timer {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()

	s := &span{name: name, start: t.c.now(), parent: t.s}
	t.s.children = append(t.s.children, s)
	return &timer{c: t.c, s: s}
}
