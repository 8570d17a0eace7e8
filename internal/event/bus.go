package event

import (
	"sync"

	"github.com/rs/zerolog"
)

// Tab names a dashboard tab.
type Tab int

const (
	TabProfile Tab = iota
	TabSearch
	TabSaved
	TabMessages
	TabMembers
)

func (t Tab) String() string {
	switch t {
	case TabProfile:
		return "Profile"
	case TabSearch:
		return "Search Clubs"
	case TabSaved:
		return "Saved Clubs"
	case TabMessages:
		return "Messages"
	case TabMembers:
		return "Members"
	default:
		return "Unknown"
	}
}

// Event is a cross-component signal. Events carry no changed data;
// receivers re-fetch what they need.
type Event interface {
	event()
}

// SavedClubsChanged is published after a save or unsave was confirmed.
type SavedClubsChanged struct{}

// SwitchTab asks the shell to show another tab.
type SwitchTab struct {
	Tab Tab
}

func (SavedClubsChanged) event() {}
func (SwitchTab) event()         {}

const bufferSize = 16

// Subscriber receives events on Ch.
type Subscriber struct {
	id int
	Ch chan Event
}

// Bus fans events out to subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]*Subscriber
	nextID      int
	dropped     int
	log         zerolog.Logger
}

// NewBus creates an event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[int]*Subscriber),
		log:         log.With().Str("component", "event-bus").Logger(),
	}
}

// Subscribe registers a new receiver.
func (b *Bus) Subscribe() *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscriber{id: b.nextID, Ch: make(chan Event, bufferSize)}
	b.subscribers[sub.id] = sub
	return sub
}

// Unsubscribe removes a receiver. The channel is left open: publishers may
// have already snapshotted the subscriber list.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, sub.id)
}

// Publish delivers e to every subscriber without blocking. A subscriber
// whose buffer is full already has work pending and misses this event.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]*Subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	dropped := 0
	for _, sub := range subs {
		select {
		case sub.Ch <- e:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.mu.Lock()
		b.dropped += dropped
		b.mu.Unlock()
		b.log.Debug().Int("dropped", dropped).Msgf("event %T coalesced for slow subscribers", e)
	}
}

// Dropped returns how many deliveries were skipped because of full buffers.
func (b *Bus) Dropped() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}
