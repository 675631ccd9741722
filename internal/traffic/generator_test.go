package traffic

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubbub-im/hubbub/internal/quotes"
	"github.com/hubbub-im/hubbub/internal/router"
	"github.com/hubbub-im/hubbub/internal/workspace"
)

func testStore() *workspace.Store {
	return workspace.NewStore(
		workspace.Meta{Title: "Test", DefaultTarget: "#general"},
		[]workspace.Channel{
			{Slug: "general", Title: "General Discussion"},
			{Slug: "help", Title: "Help Topics"},
			{Slug: "random", Title: "Random"},
		},
		[]workspace.User{
			{Slug: "alice", Name: "Alice Aster"},
			{Slug: "bob", Name: "Bob Birch"},
			{Slug: "carol", Name: "Carol Cedar"},
		},
		nil,
	)
}

func testPool(n int) *quotes.Pool {
	var qs []string
	for i := 0; i < n; i++ {
		qs = append(qs, fmt.Sprintf("quote %d", i))
	}
	return quotes.NewPool(qs, rand.New(rand.NewSource(7)))
}

func TestSeedChannels_CountsWithinBounds(t *testing.T) {
	store := testStore()
	g := NewGenerator(store, router.New(store, nil, nil), testPool(50), Config{
		SeedMin: 2,
		SeedMax: 7,
		Rand:    rand.New(rand.NewSource(42)),
	}, nil)

	require.NoError(t, g.SeedChannels())

	for _, ch := range store.Channels() {
		msgs := store.ChannelMessages(ch.Slug)
		assert.GreaterOrEqual(t, len(msgs), 2, "channel %s", ch.Slug)
		assert.LessOrEqual(t, len(msgs), 7, "channel %s", ch.Slug)
		for _, m := range msgs {
			assert.NotEmpty(t, m.Text)
			assert.NotEmpty(t, m.From.Name)
			assert.NotEmpty(t, m.From.Avatar)
		}
	}
}

func TestSeedChannels_ForcedCount(t *testing.T) {
	store := testStore()
	g := NewGenerator(store, router.New(store, nil, nil), testPool(50), Config{
		SeedMin: 3,
		SeedMax: 3,
		Rand:    rand.New(rand.NewSource(1)),
	}, nil)

	require.NoError(t, g.SeedChannels())
	assert.Len(t, store.ChannelMessages("general"), 3)
	assert.Len(t, store.ChannelMessages("help"), 3)
}

func TestSeedChannels_SyntheticTimestampsKept(t *testing.T) {
	store := testStore()
	g := NewGenerator(store, router.New(store, nil, nil), testPool(50), Config{
		SeedMin: 4,
		SeedMax: 4,
		Rand:    rand.New(rand.NewSource(3)),
	}, nil)

	before := time.Now()
	require.NoError(t, g.SeedChannels())

	msgs := store.ChannelMessages("general")
	require.Len(t, msgs, 4)
	var prev time.Time
	for _, m := range msgs {
		// Backdated anchor: every synthetic timestamp is in the past.
		assert.True(t, m.Timestamp.Before(before))
		// Cumulative offsets: non-decreasing within one channel.
		assert.False(t, m.Timestamp.Before(prev))
		prev = m.Timestamp
	}
	// Anchored at least 5 hours ago by default bounds.
	assert.True(t, msgs[0].Timestamp.Before(before.Add(-4*time.Hour)))
}

func TestSeedChannels_InvertedBoundsNormalized(t *testing.T) {
	store := testStore()
	g := NewGenerator(store, router.New(store, nil, nil), testPool(50), Config{
		SeedMin: 7,
		SeedMax: 2,
		Rand:    rand.New(rand.NewSource(9)),
	}, nil)

	require.NoError(t, g.SeedChannels())
	for _, ch := range store.Channels() {
		n := len(store.ChannelMessages(ch.Slug))
		assert.GreaterOrEqual(t, n, 2)
		assert.LessOrEqual(t, n, 7)
	}
}

func TestScheduleAmbient_OneDeliveryPerChannelCount(t *testing.T) {
	store := testStore()
	g := NewGenerator(store, router.New(store, nil, nil), testPool(50), Config{
		DelayMin: time.Millisecond,
		DelayMax: 20 * time.Millisecond,
		Rand:     rand.New(rand.NewSource(11)),
	}, nil)

	var mu sync.Mutex
	var delivered []string

	scheduled := g.ScheduleAmbient("alice", func(target string, unreadFlag bool) {
		mu.Lock()
		delivered = append(delivered, target)
		mu.Unlock()
		assert.True(t, unreadFlag)
	})
	assert.Equal(t, 3, scheduled) // one per channel in the catalog

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, delivered, 3)
	valid := map[string]bool{"#general": true, "#help": true, "#random": true}
	for _, target := range delivered {
		assert.True(t, valid[target], "unexpected target %s", target)
	}

	total := 0
	for _, ch := range store.Channels() {
		total += len(store.ChannelMessages(ch.Slug))
	}
	assert.Equal(t, 3, total)
}

func TestScheduleAmbient_ExcludesUserAndStampsNow(t *testing.T) {
	store := testStore()
	g := NewGenerator(store, router.New(store, nil, nil), testPool(50), Config{
		DelayMin: time.Millisecond,
		DelayMax: 10 * time.Millisecond,
		Rand:     rand.New(rand.NewSource(5)),
	}, nil)

	before := time.Now()
	g.ScheduleAmbient("alice", nil)
	time.Sleep(80 * time.Millisecond)

	found := 0
	for _, ch := range store.Channels() {
		for _, m := range store.ChannelMessages(ch.Slug) {
			found++
			assert.NotEqual(t, "alice", m.From.Slug)
			// Delivery overwrites the synthetic timestamp with fire-time now.
			assert.False(t, m.Timestamp.Before(before))
		}
	}
	assert.Equal(t, 3, found)
}
