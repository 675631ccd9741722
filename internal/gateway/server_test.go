package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubbub-im/hubbub/internal/unread"
	"github.com/hubbub-im/hubbub/internal/workspace"
)

func testServer(t *testing.T) (*httptest.Server, *workspace.Store, *unread.Tracker) {
	t.Helper()
	store := workspace.NewStore(
		workspace.Meta{Title: "Test", DefaultTarget: "#general"},
		[]workspace.Channel{{Slug: "general", Title: "General Discussion"}},
		[]workspace.User{
			{Slug: "alice", Name: "Alice Aster"},
			{Slug: "bob", Name: "Bob Birch"},
		},
		nil,
	)
	tracker := unread.NewTracker("#general", nil)
	srv := New(":0", store, tracker, nil, nil, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store, tracker
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestHandleChannels(t *testing.T) {
	ts, _, _ := testServer(t)

	var channels []workspace.Channel
	resp := getJSON(t, ts.URL+"/api/channels", &channels)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, channels, 1)
	assert.Equal(t, "general", channels[0].Slug)
}

func TestHandleChannelMessages(t *testing.T) {
	ts, store, _ := testServer(t)
	require.NoError(t, store.AppendChannelMessage("general", workspace.Message{From: "alice", Text: "hi"}))

	var msgs []workspace.ResolvedMessage
	getJSON(t, ts.URL+"/api/channels/general/messages", &msgs)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Alice Aster", msgs[0].From.Name)

	resp := getJSON(t, ts.URL+"/api/channels/nope/messages", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleDirectMessages(t *testing.T) {
	ts, store, _ := testServer(t)
	require.NoError(t, store.AppendDirectMessage("bob", "alice", workspace.Message{From: "alice", Text: "hey"}))

	var msgs []workspace.ResolvedMessage
	getJSON(t, ts.URL+"/api/users/bob/messages/alice", &msgs)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hey", msgs[0].Text)

	var empty []workspace.ResolvedMessage
	getJSON(t, ts.URL+"/api/users/alice/messages/bob", &empty)
	assert.Empty(t, empty)

	resp := getJSON(t, ts.URL+"/api/users/ghost/messages/alice", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleUnread(t *testing.T) {
	ts, _, tracker := testServer(t)
	tracker.MessageDelivered("#random-target")

	var body struct {
		Active string          `json:"active"`
		Unread map[string]bool `json:"unread"`
	}
	getJSON(t, ts.URL+"/api/unread", &body)
	assert.Equal(t, "#general", body.Active)
	assert.True(t, body.Unread["#random-target"])
}

func TestHandleMeta(t *testing.T) {
	ts, _, _ := testServer(t)

	var meta workspace.Meta
	getJSON(t, ts.URL+"/api/meta", &meta)
	assert.Equal(t, "Test", meta.Title)
	assert.Equal(t, "#general", meta.DefaultTarget)
}
