// Package schedule runs delayed actions through an injectable clock so
// banners and follow-up fetches can be driven by tests.
package schedule

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending delayed action.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Real uses time.AfterFunc.
type Real struct{}

// AfterFunc implements Scheduler.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Manual is a Scheduler whose clock only moves when Advance is called.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	m       *Manual
	due     time.Duration
	seq     int
	f       func()
	stopped bool
}

// NewManual returns a stopped clock at zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc implements Scheduler.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, due: m.now + d, seq: m.seq, f: f}
	m.pending = append(m.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	for i, p := range t.m.pending {
		if p == t {
			t.m.pending = append(t.m.pending[:i], t.m.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves the clock forward and runs every action that falls due, in
// due order. Actions run without the lock held and may schedule more work.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		sort.SliceStable(m.pending, func(i, j int) bool {
			if m.pending[i].due == m.pending[j].due {
				return m.pending[i].seq < m.pending[j].seq
			}
			return m.pending[i].due < m.pending[j].due
		})
		if len(m.pending) == 0 || m.pending[0].due > target {
			m.now = target
			m.mu.Unlock()
			return
		}
		next := m.pending[0]
		m.pending = m.pending[1:]
		next.stopped = true
		m.now = next.due
		m.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of actions not yet run.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// RunAll advances far enough to run everything currently scheduled.
func (m *Manual) RunAll() {
	m.mu.Lock()
	var last time.Duration
	for _, p := range m.pending {
		if p.due > last {
			last = p.due
		}
	}
	d := last - m.now
	m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.Advance(d)
}
