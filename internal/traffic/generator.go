// Package traffic generates the synthetic conversation that keeps the
// workspace looking alive: a synchronous seeding pass that pre-populates
// channel history, and randomized one-shot timers that drip messages into
// random channels.
package traffic

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hubbub-im/hubbub/internal/quotes"
	"github.com/hubbub-im/hubbub/internal/router"
	"github.com/hubbub-im/hubbub/internal/workspace"
)

// DeliveredFunc is invoked once per ambient delivery, after the message has
// been stored.
type DeliveredFunc func(target string, unread bool)

// Config tunes the generator. Zero-value fields get defaults matching the
// simulated workspace's pacing.
type Config struct {
	SeedMin int // messages per channel during seeding, lower bound
	SeedMax int // upper bound, inclusive

	AnchorMin time.Duration // synthetic history starts this long ago, at least
	AnchorMax time.Duration
	OffsetMin time.Duration // cumulative gap between synthetic timestamps
	OffsetMax time.Duration

	DelayMin time.Duration // ambient delivery delay window
	DelayMax time.Duration

	Rand *rand.Rand // deterministic source for tests; time-seeded when nil
}

func (c Config) withDefaults() Config {
	if c.SeedMin == 0 && c.SeedMax == 0 {
		c.SeedMin, c.SeedMax = 2, 7
	}
	if c.AnchorMin == 0 {
		c.AnchorMin = 5 * time.Hour
	}
	if c.AnchorMax == 0 {
		c.AnchorMax = 12 * time.Hour
	}
	if c.OffsetMin == 0 {
		c.OffsetMin = time.Second
	}
	if c.OffsetMax == 0 {
		c.OffsetMax = 10 * time.Minute
	}
	if c.DelayMin == 0 {
		c.DelayMin = time.Second
	}
	if c.DelayMax == 0 {
		c.DelayMax = 6 * time.Second
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	// Inverted bounds would be an invalid argument to the rand draws.
	if c.SeedMin > c.SeedMax {
		c.SeedMin, c.SeedMax = c.SeedMax, c.SeedMin
	}
	if c.AnchorMin > c.AnchorMax {
		c.AnchorMin, c.AnchorMax = c.AnchorMax, c.AnchorMin
	}
	if c.OffsetMin > c.OffsetMax {
		c.OffsetMin, c.OffsetMax = c.OffsetMax, c.OffsetMin
	}
	if c.DelayMin > c.DelayMax {
		c.DelayMin, c.DelayMax = c.DelayMax, c.DelayMin
	}
	return c
}

// Generator produces randomized (sender, text, timestamp) tuples from the
// quote pool and appends them to the workspace.
type Generator struct {
	store  *workspace.Store
	router *router.Router
	pool   *quotes.Pool
	cfg    Config
	logger *zap.Logger

	mu sync.Mutex // guards cfg.Rand: timers fire on their own goroutines
}

// NewGenerator creates a generator over the given store, router and pool.
func NewGenerator(store *workspace.Store, rt *router.Router, pool *quotes.Pool, cfg Config, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		store:  store,
		router: rt,
		pool:   pool,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// SeedChannels pre-populates every channel with a random count of synthetic
// messages, appended synchronously in catalog order. The synthesized
// backdated timestamps are kept as stored.
func (g *Generator) SeedChannels() error {
	users := g.store.UserSlugs()
	for _, ch := range g.store.Channels() {
		n := g.randInt(g.cfg.SeedMin, g.cfg.SeedMax)
		batch := g.randomBatch(users, n)
		for _, msg := range batch {
			if err := g.store.AppendChannelMessage(ch.Slug, msg); err != nil {
				return err
			}
		}
		g.logger.Debug("seeded channel",
			zap.String("channel", ch.Slug),
			zap.Int("messages", len(batch)))
	}
	return nil
}

// ScheduleAmbient schedules one delivery per channel-count, each on an
// independent one-shot timer with a random delay. Senders are drawn from all
// users except exclude. At fire time the message lands in a uniformly random
// channel with its timestamp overwritten by the actual delivery time, and
// onDelivered runs once. Returns the number of timers scheduled. Timers
// cannot be cancelled; every scheduled delivery eventually fires.
func (g *Generator) ScheduleAmbient(exclude string, onDelivered DeliveredFunc) int {
	channels := g.store.Channels()
	senders := make([]string, 0, len(g.store.UserSlugs()))
	for _, slug := range g.store.UserSlugs() {
		if slug != exclude {
			senders = append(senders, slug)
		}
	}

	batch := g.randomBatch(senders, len(channels))
	for _, msg := range batch {
		msg := msg
		delay := g.randDuration(g.cfg.DelayMin, g.cfg.DelayMax)
		time.AfterFunc(delay, func() {
			g.mu.Lock()
			ch := channels[g.cfg.Rand.Intn(len(channels))]
			g.mu.Unlock()
			target := "#" + ch.Slug

			// The router stamps the actual delivery time, replacing the
			// synthetic timestamp from generation.
			if _, err := g.router.Send(msg.From, target, msg.Text); err != nil {
				// Fatal to this one timer only.
				g.logger.Warn("ambient delivery failed",
					zap.String("target", target), zap.Error(err))
				return
			}
			if onDelivered != nil {
				onDelivered(target, true)
			}
		})
	}

	g.logger.Info("ambient traffic scheduled",
		zap.Int("deliveries", len(batch)),
		zap.String("excluded", exclude))
	return len(batch)
}

// randomBatch builds n synthetic messages: random senders, quote-pool text,
// and cumulatively increasing timestamps anchored a few hours in the past.
// Returns fewer than n messages if the pool runs short.
func (g *Generator) randomBatch(senders []string, n int) []workspace.Message {
	if len(senders) == 0 {
		return nil
	}
	texts := g.pool.Sample(n)

	g.mu.Lock()
	defer g.mu.Unlock()
	anchor := time.Now().Add(-g.randDurationLocked(g.cfg.AnchorMin, g.cfg.AnchorMax))
	var offset time.Duration
	batch := make([]workspace.Message, 0, len(texts))
	for _, text := range texts {
		offset += g.randDurationLocked(g.cfg.OffsetMin, g.cfg.OffsetMax)
		batch = append(batch, workspace.Message{
			ID:        uuid.NewString(),
			From:      senders[g.cfg.Rand.Intn(len(senders))],
			Text:      text,
			Timestamp: anchor.Add(offset),
		})
	}
	return batch
}

func (g *Generator) randInt(min, max int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return min + g.cfg.Rand.Intn(max-min+1)
}

func (g *Generator) randDuration(min, max time.Duration) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.randDurationLocked(min, max)
}

func (g *Generator) randDurationLocked(min, max time.Duration) time.Duration {
	return min + time.Duration(g.cfg.Rand.Int63n(int64(max-min)+1))
}
