// Package sim wires the chat core into a running workspace simulation: it
// owns the session (current user, active view), handles submitted input the
// way the chat box would, and schedules bot replies for direct messages.
package sim

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hubbub-im/hubbub/internal/bots"
	"github.com/hubbub-im/hubbub/internal/router"
	"github.com/hubbub-im/hubbub/internal/traffic"
	"github.com/hubbub-im/hubbub/internal/unread"
	"github.com/hubbub-im/hubbub/internal/workspace"
)

// Session is the simulated login: a user picked from the catalog and the
// workspace's default target as the opening view.
type Session struct {
	User          string
	DefaultTarget string
}

// RandomSession picks a random catalog user. rng may be nil.
func RandomSession(store *workspace.Store, rng *rand.Rand) Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	slugs := store.UserSlugs()
	return Session{
		User:          slugs[rng.Intn(len(slugs))],
		DefaultTarget: store.Meta().DefaultTarget,
	}
}

// Options tunes the simulator. Zero-value fields get defaults.
type Options struct {
	ReplyDelayMin time.Duration // bot reply delay window, default 1s
	ReplyDelayMax time.Duration // default 1.5s
	Rand          *rand.Rand
}

func (o Options) withDefaults() Options {
	if o.ReplyDelayMin == 0 {
		o.ReplyDelayMin = time.Second
	}
	if o.ReplyDelayMax == 0 {
		o.ReplyDelayMax = 1500 * time.Millisecond
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	// An inverted window would be an invalid argument to the delay draw.
	if o.ReplyDelayMin > o.ReplyDelayMax {
		o.ReplyDelayMin, o.ReplyDelayMax = o.ReplyDelayMax, o.ReplyDelayMin
	}
	return o
}

// Simulator drives one user's view of the workspace.
type Simulator struct {
	store     *workspace.Store
	router    *router.Router
	tracker   *unread.Tracker
	gen       *traffic.Generator
	responder *bots.Responder
	replier   *bots.Replier
	session   Session
	opts      Options
	logger    *zap.Logger

	mu     sync.Mutex // guards drafts and opts.Rand
	drafts map[string]string
}

// New creates a simulator. The tracker's active view should already be the
// session's default target.
func New(store *workspace.Store, rt *router.Router, tracker *unread.Tracker,
	gen *traffic.Generator, responder *bots.Responder, session Session,
	opts Options, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		store:     store,
		router:    rt,
		tracker:   tracker,
		gen:       gen,
		responder: responder,
		replier:   bots.NewReplier(),
		session:   session,
		opts:      opts.withDefaults(),
		drafts:    make(map[string]string),
		logger:    logger,
	}
}

// Session returns the simulated login.
func (s *Simulator) Session() Session {
	return s.session
}

// Tracker exposes the unread tracker for read access.
func (s *Simulator) Tracker() *unread.Tracker {
	return s.tracker
}

// Seed pre-populates every channel with synthetic history.
func (s *Simulator) Seed() error {
	return s.gen.SeedChannels()
}

// ScheduleAmbient schedules one round of ambient traffic, excluding the
// session user as a sender. Deliveries update the unread tracker.
func (s *Simulator) ScheduleAmbient() int {
	return s.gen.ScheduleAmbient(s.session.User, func(target string, _ bool) {
		s.tracker.MessageDelivered(target)
	})
}

// Submit sends text from the session user to the active view, mirroring an
// enter keypress in the chat box. Empty (all-whitespace) input is silently
// dropped. A direct target that is not the user themselves gets a bot reply
// scheduled after a short random delay; a newer submission to the same
// target replaces a still-pending reply.
func (s *Simulator) Submit(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	target := s.tracker.Active()

	if _, err := s.router.Send(s.session.User, target, text); err != nil {
		return err
	}
	s.SetDraft(target, "")
	s.tracker.MessageDelivered(target)

	kind, slug, err := router.ParseTarget(target)
	if err == nil && kind == router.TargetUser && slug != s.session.User {
		s.scheduleBotReply(target, slug, text)
	}
	return nil
}

// SwitchView changes the active view, clearing its unread flag.
func (s *Simulator) SwitchView(target string) {
	s.tracker.ViewChanged(target)
}

// ActiveMessages returns the message sequence for the active view: channel
// history for channel targets, the session user's DM thread for user
// targets.
func (s *Simulator) ActiveMessages() []workspace.ResolvedMessage {
	target := s.tracker.Active()
	kind, slug, err := router.ParseTarget(target)
	if err != nil {
		return nil
	}
	if kind == router.TargetChannel {
		return s.store.ChannelMessages(slug)
	}
	return s.store.DirectMessages(s.session.User, slug)
}

// Draft returns the remembered unsent input for a target.
func (s *Simulator) Draft(target string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[target]
}

// SetDraft remembers unsent input for a target so switching views and back
// restores it.
func (s *Simulator) SetDraft(target, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if text == "" {
		delete(s.drafts, target)
		return
	}
	s.drafts[target] = text
}

func (s *Simulator) scheduleBotReply(target, botSlug, text string) {
	s.mu.Lock()
	delay := s.opts.ReplyDelayMin +
		time.Duration(s.opts.Rand.Int63n(int64(s.opts.ReplyDelayMax-s.opts.ReplyDelayMin)+1))
	s.mu.Unlock()

	s.replier.Schedule(target, delay, func() {
		reply := s.responder.Converse(target, text)
		if _, err := s.router.Send(botSlug, "@"+s.session.User, reply); err != nil {
			s.logger.Warn("bot reply failed", zap.String("bot", botSlug), zap.Error(err))
			return
		}
		s.tracker.MessageDelivered("@" + botSlug)
		s.logger.Debug("bot replied", zap.String("bot", botSlug))
	})
}
