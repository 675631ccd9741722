package bots

import (
	"sync"
	"time"
)

// Replier schedules delayed bot replies with an at-most-one-pending policy
// per chat box: scheduling a new reply for the same key cancels a pending
// one, debouncing rapid submissions.
type Replier struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewReplier creates an empty replier.
func NewReplier() *Replier {
	return &Replier{pending: make(map[string]*time.Timer)}
}

// Schedule runs fn after delay, replacing any still-pending reply for key.
func (r *Replier) Schedule(key string, delay time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.pending[key]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		r.mu.Lock()
		if r.pending[key] == timer {
			delete(r.pending, key)
		}
		r.mu.Unlock()
		fn()
	})
	r.pending[key] = timer
}

// Pending reports whether a reply is still scheduled for key.
func (r *Replier) Pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[key]
	return ok
}
