// Package unread tracks the per-target "has unseen activity" flag. It is a
// reducer over two events: a message delivered to a target, and the active
// view switching to a target.
package unread

import "sync"

// Tracker owns the unread flags and the current active view. A delivery to
// the active target never marks it unread; it triggers the refresh callback
// instead so the open view reloads its messages.
type Tracker struct {
	mu        sync.Mutex
	active    string
	flags     map[string]bool
	onRefresh func()
}

// NewTracker creates a tracker with the given initial active target.
// onRefresh may be nil.
func NewTracker(active string, onRefresh func()) *Tracker {
	if onRefresh == nil {
		onRefresh = func() {}
	}
	return &Tracker{
		active:    active,
		flags:     make(map[string]bool),
		onRefresh: onRefresh,
	}
}

// MessageDelivered records a delivery to target. Must be called exactly once
// per delivered message or the flags drift.
func (t *Tracker) MessageDelivered(target string) {
	t.mu.Lock()
	refresh := target == t.active
	t.flags[target] = !refresh
	t.mu.Unlock()

	if refresh {
		t.onRefresh()
	}
}

// ViewChanged switches the active view to target and clears its flag. Other
// targets keep their flags.
func (t *Tracker) ViewChanged(target string) {
	t.mu.Lock()
	t.active = target
	t.flags[target] = false
	t.mu.Unlock()
}

// Active returns the current active target.
func (t *Tracker) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Unread reports whether target has unseen activity.
func (t *Tracker) Unread(target string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flags[target]
}

// Snapshot returns a copy of all unread flags.
func (t *Tracker) Snapshot() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]bool, len(t.flags))
	for k, v := range t.flags {
		out[k] = v
	}
	return out
}
