// Package router classifies send targets and delivers messages into the
// workspace store. A leading '#' names a channel, a leading '@' a user;
// anything else is rejected.
package router

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hubbub-im/hubbub/internal/bus"
	"github.com/hubbub-im/hubbub/internal/workspace"
)

// TargetKind is the classification of a target identifier.
type TargetKind int

const (
	TargetChannel TargetKind = iota
	TargetUser
)

// InvalidTargetError reports a target identifier without a recognized sigil.
type InvalidTargetError struct {
	Target string
}

func (e *InvalidTargetError) Error() string {
	return "invalid target: " + e.Target
}

// ParseTarget splits a sigil-prefixed target identifier into its kind and
// bare slug.
func ParseTarget(target string) (TargetKind, string, error) {
	switch {
	case strings.HasPrefix(target, "#"):
		return TargetChannel, target[1:], nil
	case strings.HasPrefix(target, "@"):
		return TargetUser, target[1:], nil
	default:
		return 0, "", &InvalidTargetError{Target: target}
	}
}

// Router builds message records and hands them to the store. An optional
// feed receives one event per successful delivery.
type Router struct {
	store  *workspace.Store
	feed   *bus.Feed
	now    func() time.Time
	logger *zap.Logger
}

// New creates a Router over the given store. feed may be nil.
func New(store *workspace.Store, feed *bus.Feed, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		store:  store,
		feed:   feed,
		now:    time.Now,
		logger: logger,
	}
}

// Send delivers text from sender to target. Channel targets append to the
// channel's sequence; user targets append to the recipient's thread keyed by
// the sender, so the message is visible in the recipient's view only. Text
// is trimmed of surrounding whitespace; callers do not submit empty text.
func (r *Router) Send(sender, target, text string) (workspace.Message, error) {
	kind, slug, err := ParseTarget(target)
	if err != nil {
		return workspace.Message{}, err
	}

	msg := workspace.Message{
		ID:        uuid.NewString(),
		From:      sender,
		Text:      strings.TrimSpace(text),
		Timestamp: r.now(),
	}

	switch kind {
	case TargetChannel:
		if err := r.store.AppendChannelMessage(slug, msg); err != nil {
			return workspace.Message{}, err
		}
		r.publish(bus.KindChannel, target, msg)
	case TargetUser:
		if err := r.store.AppendDirectMessage(slug, sender, msg); err != nil {
			return workspace.Message{}, err
		}
		r.publish(bus.KindDirect, target, msg)
	}

	r.logger.Debug("message delivered",
		zap.String("from", sender),
		zap.String("target", target))
	return msg, nil
}

func (r *Router) publish(kind bus.Kind, target string, msg workspace.Message) {
	if r.feed == nil {
		return
	}
	r.feed.Publish(bus.Event{
		Kind:      kind,
		Target:    target,
		From:      msg.From,
		Text:      msg.Text,
		MessageID: msg.ID,
		Timestamp: msg.Timestamp,
	})
}
