// Package redisfeed mirrors delivery events onto a Redis pub/sub channel so
// external dashboards can watch the simulated workspace.
//
// Graceful fallback: when Redis is not configured or unreachable, the mirror
// is inert and every publish is a no-op.
package redisfeed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hubbub-im/hubbub/internal/bus"
)

// Config holds the Redis connection settings.
type Config struct {
	URL      string // redis://host:port; empty disables the mirror
	Password string
	DB       int
	Channel  string // pub/sub channel name
}

// Mirror publishes delivery events to Redis.
type Mirror struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// New connects to Redis. A missing URL or a failed ping returns a disabled
// mirror, never an error: the simulation must not depend on Redis being up.
func New(cfg Config, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mirror{channel: cfg.Channel, logger: logger}
	if cfg.Channel == "" {
		m.channel = "hubbub:deliveries"
	}
	if cfg.URL == "" {
		return m
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		logger.Warn("invalid redis url, mirror disabled", zap.Error(err))
		return m
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.DB = cfg.DB
	opts.DialTimeout = 5 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, mirror disabled", zap.Error(err))
		client.Close()
		return m
	}

	m.client = client
	logger.Info("redis mirror connected", zap.String("channel", m.channel))
	return m
}

// Enabled reports whether events are actually mirrored.
func (m *Mirror) Enabled() bool {
	return m.client != nil
}

// Attach subscribes the mirror to a delivery feed.
func (m *Mirror) Attach(feed *bus.Feed) {
	feed.SubscribeAll(m.publish)
}

func (m *Mirror) publish(evt bus.Event) {
	if m.client == nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.client.Publish(ctx, m.channel, data).Err(); err != nil {
		m.logger.Debug("redis publish failed", zap.Error(err))
	}
}

// Close releases the Redis connection.
func (m *Mirror) Close() {
	if m.client != nil {
		m.client.Close()
	}
}
