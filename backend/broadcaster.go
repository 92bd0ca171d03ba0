package backend

import (
	"sync"

	"github.com/jrsteele09/lingo-session/sessions"
)

const subscriberBuffer = 16

type subscriber struct {
	events chan sessions.Event
	done   chan struct{}
}

// Broadcaster fans auth events out to subscribers. Publish blocks until every
// live subscriber has accepted the event or unsubscribed.
type Broadcaster struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]*subscriber
}

// NewBroadcaster creates a Broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[int]*subscriber)}
}

// Subscribe registers a new subscriber.
func (b *Broadcaster) Subscribe() (<-chan sessions.Event, func()) {
	sub := &subscriber{
		events: make(chan sessions.Event, subscriberBuffer),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = sub
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(sub.done)
		})
	}
	return sub.events, unsubscribe
}

// Publish delivers the event to all current subscribers.
func (b *Broadcaster) Publish(event sessions.Event) {
	b.mu.RLock()
	subs := make([]*subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.events <- event:
		case <-sub.done:
		}
	}
}

// Len returns the number of live subscribers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
