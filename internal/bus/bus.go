// Package bus provides the delivery-event feed that decouples the message
// core from its observers (gateway, metrics, external mirrors).
package bus

import (
	"context"
	"sync"
	"time"
)

// Kind classifies where a delivery landed.
type Kind string

const (
	KindChannel Kind = "channel"
	KindDirect  Kind = "direct"
)

// Event describes one delivered message.
type Event struct {
	Kind      Kind      `json:"kind"`
	Target    string    `json:"target"` // sigil-prefixed target, e.g. "#general" or "@alice"
	From      string    `json:"from"`
	Text      string    `json:"text"`
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Feed fans delivery events out to subscribers. Dispatch runs on its own
// goroutine; publishing never blocks delivery-path callers as long as the
// dispatcher is draining.
type Feed struct {
	events chan Event

	mu          sync.RWMutex
	subscribers map[string][]func(Event)
	allSubs     []func(Event)
}

// NewFeed creates a feed with a buffered event queue.
func NewFeed() *Feed {
	return &Feed{
		events:      make(chan Event, 100),
		subscribers: make(map[string][]func(Event)),
	}
}

// Publish enqueues a delivery event.
func (f *Feed) Publish(evt Event) {
	f.events <- evt
}

// Subscribe registers a callback for events on a specific target.
func (f *Feed) Subscribe(target string, cb func(Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers[target] = append(f.subscribers[target], cb)
}

// SubscribeAll registers a callback for every event.
func (f *Feed) SubscribeAll(cb func(Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allSubs = append(f.allSubs, cb)
}

// Dispatch runs the dispatch loop. Blocks until ctx is cancelled.
func (f *Feed) Dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-f.events:
			f.mu.RLock()
			subs := f.subscribers[evt.Target]
			all := f.allSubs
			f.mu.RUnlock()
			for _, cb := range subs {
				cb(evt)
			}
			for _, cb := range all {
				cb(evt)
			}
		}
	}
}

// Pending returns the number of queued events.
func (f *Feed) Pending() int {
	return len(f.events)
}
