package workspace

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() *Store {
	return NewStore(
		Meta{Title: "Test Workspace", DefaultTarget: "#general"},
		[]Channel{
			{Slug: "general", Title: "General Discussion"},
			{Slug: "help", Title: "Help Topics"},
		},
		[]User{
			{Slug: "alice", Name: "Alice Aster"},
			{Slug: "bob", Name: "Bob Birch"},
		},
		nil,
	)
}

func TestNewStore_Catalogs(t *testing.T) {
	s := testStore()

	channels := s.Channels()
	require.Len(t, channels, 2)
	assert.Equal(t, "general", channels[0].Slug)
	assert.Equal(t, "help", channels[1].Slug)

	users := s.Users()
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Slug)
	assert.Equal(t, "/images/users/alice.jpg", users[0].Avatar)
	assert.Equal(t, []string{"alice", "bob"}, s.UserSlugs())
}

func TestAppendChannelMessage(t *testing.T) {
	s := testStore()
	msg := Message{ID: "m1", From: "alice", Text: "hello", Timestamp: time.Now()}

	require.NoError(t, s.AppendChannelMessage("general", msg))

	got := s.ChannelMessages("general")
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Text)
	assert.Equal(t, "Alice Aster", got[0].From.Name)
	assert.Equal(t, "/images/users/alice.jpg", got[0].From.Avatar)
	assert.Empty(t, s.ChannelMessages("help"))
}

func TestAppendChannelMessage_UnknownChannel(t *testing.T) {
	s := testStore()
	err := s.AppendChannelMessage("nope", Message{Text: "x"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "channel", nf.Kind)
	assert.Equal(t, "nope", nf.Slug)
}

func TestAppendDirectMessage_AsymmetricThreads(t *testing.T) {
	s := testStore()
	msg := Message{ID: "m1", From: "alice", Text: "hey", Timestamp: time.Now()}

	// Delivery writes into the recipient's mapping keyed by the sender.
	require.NoError(t, s.AppendDirectMessage("bob", "alice", msg))

	got := s.DirectMessages("bob", "alice")
	require.Len(t, got, 1)
	assert.Equal(t, "hey", got[0].Text)
	assert.Equal(t, "alice", got[0].From.Slug)

	// The sender's own view of the conversation stays empty.
	assert.Empty(t, s.DirectMessages("alice", "bob"))
}

func TestAppendDirectMessage_UnknownRecipient(t *testing.T) {
	s := testStore()
	err := s.AppendDirectMessage("ghost", "alice", Message{Text: "x"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestChannelMessages_AppendOnlyOrder(t *testing.T) {
	s := testStore()
	for i := 0; i < 5; i++ {
		msg := Message{ID: fmt.Sprintf("m%d", i), From: "bob", Text: fmt.Sprintf("msg %d", i)}
		require.NoError(t, s.AppendChannelMessage("general", msg))
		assert.Len(t, s.ChannelMessages("general"), i+1)
	}
	got := s.ChannelMessages("general")
	for i, m := range got {
		assert.Equal(t, fmt.Sprintf("msg %d", i), m.Text)
	}
}

func TestResolve_UnknownSenderFallback(t *testing.T) {
	s := testStore()
	require.NoError(t, s.AppendChannelMessage("general", Message{From: "stranger", Text: "hi"}))

	got := s.ChannelMessages("general")
	require.Len(t, got, 1)
	assert.Equal(t, "stranger", got[0].From.Slug)
	assert.Equal(t, "stranger", got[0].From.Name)
}

func TestMeta_Lookups(t *testing.T) {
	s := testStore()

	meta, ok := s.ChannelMeta("help")
	require.True(t, ok)
	assert.Equal(t, "Help Topics", meta.Title)

	_, ok = s.ChannelMeta("nope")
	assert.False(t, ok)

	user, ok := s.UserMeta("bob")
	require.True(t, ok)
	assert.Equal(t, "Bob Birch", user.Name)

	assert.True(t, s.HasUser("alice"))
	assert.False(t, s.HasUser("ghost"))
	assert.Equal(t, "#general", s.Meta().DefaultTarget)
}
