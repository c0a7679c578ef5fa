package services

import (
	"sync"

	"luxvision/models"
)

// Order event types broadcast to back-office subscribers.
const (
	EventOrderCreated   = "created"
	EventOrderStatus    = "status"
	EventOrderPayment   = "payment"
	EventOrderCancelled = "cancelled"
)

// OrderEvent is a change to an order.
type OrderEvent struct {
	Type  string        `json:"type"`
	Order *models.Order `json:"order"`
}

// Feed fans order events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full is dropped and its channel closed.
type Feed struct {
	mu     sync.Mutex
	subs   map[chan OrderEvent]struct{}
	buffer int
	closed bool
}

// NewFeed returns a feed giving each subscriber buffer pending events.
func NewFeed(buffer int) *Feed {
	return &Feed{subs: make(map[chan OrderEvent]struct{}), buffer: buffer}
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// is safe to call more than once.
func (f *Feed) Subscribe() (<-chan OrderEvent, func()) {
	ch := make(chan OrderEvent, f.buffer)
	f.mu.Lock()
	if f.closed {
		close(ch)
	} else {
		f.subs[ch] = struct{}{}
	}
	f.mu.Unlock()

	return ch, func() { f.drop(ch) }
}

func (f *Feed) drop(ch chan OrderEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
}

// Publish sends ev to every subscriber.
func (f *Feed) Publish(ev OrderEvent) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
			delete(f.subs, ch)
			close(ch)
		}
	}
}

// Close disconnects every subscriber. Later subscriptions receive a closed channel.
func (f *Feed) Close() {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for ch := range f.subs {
		delete(f.subs, ch)
		close(ch)
	}
}

// Subscribers returns the number of live subscribers.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
