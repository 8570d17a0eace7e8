package notice

import (
	"sync"
	"time"

	"github.com/notepid/club_companion/internal/schedule"
)

// Kind classifies a banner.
type Kind int

const (
	Info Kind = iota
	Success
	Error
)

// Notice is the text currently shown in a banner.
type Notice struct {
	Kind Kind
	Text string
	// Retry marks a persistent error the user can retry.
	Retry bool
}

// Banner holds at most one notice. A notice with a ttl dismisses itself;
// a newer Show always replaces the older one and cancels its dismissal.
type Banner struct {
	mu      sync.Mutex
	sched   schedule.Scheduler
	current *Notice
	seq     uint64
	timer   schedule.Timer
	onClear func()
}

// NewBanner returns an empty banner driven by sched.
func NewBanner(sched schedule.Scheduler) *Banner {
	return &Banner{sched: sched}
}

// OnChange registers f to run after an automatic dismissal.
func (b *Banner) OnChange(f func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onClear = f
}

// Show displays text. ttl <= 0 keeps it until replaced or cleared.
func (b *Banner) Show(kind Kind, text string, ttl time.Duration) {
	b.show(Notice{Kind: kind, Text: text}, ttl)
}

// ShowRetry displays a persistent error the user can retry.
func (b *Banner) ShowRetry(text string) {
	b.show(Notice{Kind: Error, Text: text, Retry: true}, 0)
}

func (b *Banner) show(n Notice, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	b.current = &n
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if ttl <= 0 {
		return
	}
	seq := b.seq
	b.timer = b.sched.AfterFunc(ttl, func() { b.expire(seq) })
}

func (b *Banner) expire(seq uint64) {
	b.mu.Lock()
	if seq != b.seq {
		b.mu.Unlock()
		return
	}
	b.current = nil
	b.timer = nil
	onClear := b.onClear
	b.mu.Unlock()

	if onClear != nil {
		onClear()
	}
}

// Current returns the visible notice, if any.
func (b *Banner) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Notice{}, false
	}
	return *b.current, true
}

// Clear removes the notice and cancels a pending dismissal.
func (b *Banner) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.current = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
