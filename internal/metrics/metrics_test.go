package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/hubbub-im/hubbub/internal/bus"
)

func TestCollector_CountsDeliveries(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	feed := bus.NewFeed()
	c.Attach(feed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Dispatch(ctx)

	feed.Publish(bus.Event{Kind: bus.KindChannel, Target: "#general"})
	feed.Publish(bus.Event{Kind: bus.KindChannel, Target: "#help"})
	feed.Publish(bus.Event{Kind: bus.KindDirect, Target: "@alice"})

	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.deliveries.WithLabelValues("channel")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.deliveries.WithLabelValues("direct")))
}

func TestCollector_WSGauge(t *testing.T) {
	c := New(prometheus.NewRegistry())
	c.WSConnected()
	c.WSConnected()
	c.WSDisconnected()
	assert.Equal(t, float64(1), testutil.ToFloat64(c.wsClients))
}
