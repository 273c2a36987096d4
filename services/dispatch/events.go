package dispatch

import (
	"sync"
	"time"

	"fixitquick/models"
)

// subscriberBuffer bounds each subscriber's channel. A subscriber that
// cannot keep up loses events rather than blocking a state transition.
const subscriberBuffer = 32

type subscriber struct {
	ch        chan models.DispatchEvent
	bookingID string // empty subscribes to everything
}

// Broker fans dispatch events out to subscribers. It replaces the shared
// mutable notification state the dashboards used to poke at: observers
// subscribe here instead.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]*subscriber)}
}

// Subscribe registers a listener. When bookingID is non-empty only events
// for that booking are delivered. The returned cancel func must be called to
// release the subscription.
func (b *Broker) Subscribe(bookingID string) (<-chan models.DispatchEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	sub := &subscriber{
		ch:        make(chan models.DispatchEvent, subscriberBuffer),
		bookingID: bookingID,
	}
	b.subs[id] = sub

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// Publish delivers the event to every matching subscriber without blocking.
func (b *Broker) Publish(ev models.DispatchEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.bookingID != "" && sub.bookingID != ev.BookingID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// Slow subscriber; drop.
		}
	}
}
