package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hubbub-im/hubbub/internal/config"
	"github.com/hubbub-im/hubbub/internal/gateway"
	"github.com/hubbub-im/hubbub/internal/metrics"
	"github.com/hubbub-im/hubbub/internal/redisfeed"
)

var (
	serveAddr    string
	serveAmbient time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation with the live-view gateway",
	Long: "Runs the workspace simulation headless and serves a read-only view:\n" +
		"REST catalog and message endpoints, a websocket delivery feed on /ws,\n" +
		"and prometheus metrics on /metrics.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().DurationVar(&serveAmbient, "ambient", 30*time.Second, "reschedule ambient traffic at this interval")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Gateway.Addr = serveAddr
	}

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	coll := metrics.New(reg)
	coll.Attach(a.feed)

	mirror := redisfeed.New(redisfeed.Config{
		URL:      cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Channel:  cfg.Redis.Channel,
	}, logger)
	defer mirror.Close()
	if mirror.Enabled() {
		mirror.Attach(a.feed)
	}

	srv := gateway.New(cfg.Gateway.Addr, a.store, a.tracker, a.feed, coll, reg, logger)

	go a.feed.Dispatch(ctx)

	if err := a.sim.Seed(); err != nil {
		return err
	}
	a.sim.ScheduleAmbient()
	go func() {
		ticker := time.NewTicker(serveAmbient)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.sim.ScheduleAmbient()
			}
		}
	}()

	return srv.Run(ctx)
}
