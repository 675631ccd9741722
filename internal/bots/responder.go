package bots

import (
	"sync"

	"go.uber.org/zap"
)

// Responder coordinates one Eliza engine per conversation context. Engines
// are created on first contact and kept for the process lifetime; the
// context catalog is small and fixed, so the map never needs eviction.
type Responder struct {
	mu       sync.Mutex
	sessions map[string]*Eliza
	logger   *zap.Logger
}

// NewResponder creates an empty responder.
func NewResponder(logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{
		sessions: make(map[string]*Eliza),
		logger:   logger,
	}
}

// Converse returns the bot reply for text in the given context. The very
// first message in a context gets the fixed greeting and its text is
// discarded; later messages are fed to that context's engine.
func (r *Responder) Converse(contextKey, text string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[contextKey]
	if !ok {
		e = NewEliza()
		r.sessions[contextKey] = e
		r.logger.Debug("bot conversation started", zap.String("context", contextKey))
		return e.Initial()
	}
	return e.Transform(text)
}

// Contexts returns the number of active conversation contexts.
func (r *Responder) Contexts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
