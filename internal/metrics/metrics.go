// Package metrics exposes delivery counters for the gateway's /metrics
// endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hubbub-im/hubbub/internal/bus"
)

// Collector counts delivered messages by kind and tracks live websocket
// viewers.
type Collector struct {
	deliveries *prometheus.CounterVec
	wsClients  prometheus.Gauge
}

// New registers the collectors with reg. reg may be nil to use the default
// registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hubbub_deliveries_total",
			Help: "Messages delivered, by target kind.",
		}, []string{"kind"}),
		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hubbub_ws_clients",
			Help: "Connected websocket viewers.",
		}),
	}
}

// Attach subscribes the collector to a delivery feed.
func (c *Collector) Attach(feed *bus.Feed) {
	feed.SubscribeAll(func(evt bus.Event) {
		c.deliveries.WithLabelValues(string(evt.Kind)).Inc()
	})
}

// WSConnected records a new websocket viewer.
func (c *Collector) WSConnected() { c.wsClients.Inc() }

// WSDisconnected records a websocket viewer leaving.
func (c *Collector) WSDisconnected() { c.wsClients.Dec() }
