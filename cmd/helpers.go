package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hubbub-im/hubbub/internal/bots"
	"github.com/hubbub-im/hubbub/internal/bus"
	"github.com/hubbub-im/hubbub/internal/config"
	"github.com/hubbub-im/hubbub/internal/quotes"
	"github.com/hubbub-im/hubbub/internal/router"
	"github.com/hubbub-im/hubbub/internal/sim"
	"github.com/hubbub-im/hubbub/internal/traffic"
	"github.com/hubbub-im/hubbub/internal/unread"
	"github.com/hubbub-im/hubbub/internal/workspace"
)

// app bundles one wired-up workspace simulation.
type app struct {
	cfg     config.Config
	store   *workspace.Store
	feed    *bus.Feed
	tracker *unread.Tracker
	sim     *sim.Simulator
}

// buildApp assembles the store, router, tracker, generator, responder and
// simulator from configuration.
func buildApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	channels := make([]workspace.Channel, 0, len(cfg.Workspace.Channels))
	for _, ch := range cfg.Workspace.Channels {
		channels = append(channels, workspace.Channel{Slug: ch.Slug, Title: ch.Title})
	}
	users := make([]workspace.User, 0, len(cfg.Workspace.Users))
	for _, u := range cfg.Workspace.Users {
		users = append(users, workspace.User{Slug: u.Slug, Name: u.Name, Bot: u.Bot})
	}

	store := workspace.NewStore(workspace.Meta{
		Title:         cfg.Workspace.Title,
		DefaultTarget: cfg.Workspace.DefaultTarget,
	}, channels, users, logger)

	pool := quotes.Default()
	if cfg.Quotes.File != "" {
		var err error
		pool, err = quotes.LoadFile(cfg.Quotes.File)
		if err != nil {
			return nil, fmt.Errorf("loading quotes: %w", err)
		}
	}

	feed := bus.NewFeed()
	rt := router.New(store, feed, logger)
	session := sim.RandomSession(store, nil)
	tracker := unread.NewTracker(session.DefaultTarget, nil)
	gen := traffic.NewGenerator(store, rt, pool, traffic.Config{
		SeedMin:  cfg.Traffic.SeedMin,
		SeedMax:  cfg.Traffic.SeedMax,
		DelayMin: cfg.Traffic.DelayMin,
		DelayMax: cfg.Traffic.DelayMax,
	}, logger)
	responder := bots.NewResponder(logger)

	simulator := sim.New(store, rt, tracker, gen, responder, session, sim.Options{
		ReplyDelayMin: cfg.Bots.ReplyDelayMin,
		ReplyDelayMax: cfg.Bots.ReplyDelayMax,
	}, logger)

	logger.Info("workspace ready",
		zap.String("title", cfg.Workspace.Title),
		zap.String("session_user", session.User),
		zap.Int("channels", len(channels)),
		zap.Int("users", len(users)))

	return &app{
		cfg:     cfg,
		store:   store,
		feed:    feed,
		tracker: tracker,
		sim:     simulator,
	}, nil
}
