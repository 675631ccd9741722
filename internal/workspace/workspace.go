// Package workspace holds the in-memory chat workspace state: the fixed
// channel and user catalogs plus every channel message and direct-message
// thread. The store is append-only; nothing is ever removed or reordered.
package workspace

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Channel is a named broadcast message sequence.
type Channel struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// User is a workspace member. Bot marks identities answered by the
// responder rather than a human.
type User struct {
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Bot    bool   `json:"bot,omitempty"`
}

// Message is a stored chat message. Immutable once appended: reads enrich a
// copy, never the stored record.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ResolvedMessage is the read-side projection of a Message with the sender
// slug resolved into the full catalog identity.
type ResolvedMessage struct {
	ID        string    `json:"id"`
	From      User      `json:"from"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Meta is the workspace-level metadata.
type Meta struct {
	Title         string `json:"title"`
	DefaultTarget string `json:"default_target"`
}

type channelState struct {
	meta     Channel
	messages []Message
}

type userState struct {
	meta    User
	threads map[string][]Message // partner slug -> DM thread
}

// Store is the authoritative message table. Catalogs are fixed at
// construction; message sequences only grow. Safe for concurrent use: timer
// callbacks append from their own goroutines.
type Store struct {
	mu       sync.RWMutex
	meta     Meta
	channels map[string]*channelState
	chanList []string // catalog order
	users    map[string]*userState
	userList []string
	logger   *zap.Logger
}

// AvatarURL returns the avatar location for a user slug.
func AvatarURL(slug string) string {
	return "/images/users/" + slug + ".jpg"
}

// NewStore builds a store around fixed channel and user catalogs. Channel
// and user order is preserved as catalog order. User avatars are derived
// from the slug when not set.
func NewStore(meta Meta, channels []Channel, users []User, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		meta:     meta,
		channels: make(map[string]*channelState, len(channels)),
		users:    make(map[string]*userState, len(users)),
		logger:   logger,
	}
	for _, c := range channels {
		s.channels[c.Slug] = &channelState{meta: c}
		s.chanList = append(s.chanList, c.Slug)
	}
	for _, u := range users {
		if u.Avatar == "" {
			u.Avatar = AvatarURL(u.Slug)
		}
		s.users[u.Slug] = &userState{meta: u, threads: make(map[string][]Message)}
		s.userList = append(s.userList, u.Slug)
	}
	s.logger.Debug("workspace store initialized",
		zap.Int("channels", len(s.chanList)),
		zap.Int("users", len(s.userList)))
	return s
}

// Meta returns the workspace metadata.
func (s *Store) Meta() Meta {
	return s.meta
}

// AppendChannelMessage appends a message to a channel's sequence.
func (s *Store) AppendChannelMessage(channel string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.channels[channel]
	if !ok {
		return &NotFoundError{Kind: "channel", Slug: channel}
	}
	cs.messages = append(cs.messages, msg)
	return nil
}

// AppendDirectMessage appends a message to recipient's thread keyed by
// partner, creating the thread on first use. Delivery is asymmetric: only
// the recipient's own mapping is written.
func (s *Store) AppendDirectMessage(recipient, partner string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	us, ok := s.users[recipient]
	if !ok {
		return &NotFoundError{Kind: "user", Slug: recipient}
	}
	us.threads[partner] = append(us.threads[partner], msg)
	return nil
}

// ChannelMessages returns a channel's messages with resolved senders.
// Unknown channels and empty channels both yield an empty slice.
func (s *Store) ChannelMessages(channel string) []ResolvedMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.channels[channel]
	if !ok {
		return nil
	}
	return s.resolveLocked(cs.messages)
}

// DirectMessages returns user's DM thread with partner, resolved. An absent
// thread yields an empty slice.
func (s *Store) DirectMessages(user, partner string) []ResolvedMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	us, ok := s.users[user]
	if !ok {
		return nil
	}
	return s.resolveLocked(us.threads[partner])
}

// Channels returns the channel catalog in catalog order.
func (s *Store) Channels() []Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Channel, 0, len(s.chanList))
	for _, slug := range s.chanList {
		out = append(out, s.channels[slug].meta)
	}
	return out
}

// Users returns the user catalog in catalog order.
func (s *Store) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.userList))
	for _, slug := range s.userList {
		out = append(out, s.users[slug].meta)
	}
	return out
}

// UserSlugs returns the catalog user slugs in catalog order.
func (s *Store) UserSlugs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.userList))
	copy(out, s.userList)
	return out
}

// ChannelMeta looks up a channel by slug.
func (s *Store) ChannelMeta(slug string) (Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.channels[slug]
	if !ok {
		return Channel{}, false
	}
	return cs.meta, true
}

// UserMeta looks up a user by slug.
func (s *Store) UserMeta(slug string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	us, ok := s.users[slug]
	if !ok {
		return User{}, false
	}
	return us.meta, true
}

// HasUser reports whether slug is in the user catalog.
func (s *Store) HasUser(slug string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[slug]
	return ok
}

func (s *Store) resolveLocked(msgs []Message) []ResolvedMessage {
	out := make([]ResolvedMessage, 0, len(msgs))
	for _, m := range msgs {
		from := User{Slug: m.From, Name: m.From, Avatar: AvatarURL(m.From)}
		if us, ok := s.users[m.From]; ok {
			from = us.meta
		}
		out = append(out, ResolvedMessage{
			ID:        m.ID,
			From:      from,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}
	return out
}
