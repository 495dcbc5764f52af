// Package channels connects chat platforms to the FAQ responder.
package channels

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/nextlevelbuilder/faqclaw/internal/bus"
	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

// Channel is one chat platform connection.
type Channel interface {
	// Name is the channel identifier used in bus messages ("telegram", ...).
	Name() string
	// Start connects and begins receiving messages. It returns once the
	// connection is up; receiving continues until ctx is done or Stop.
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Send delivers a reply to msg.ChatID.
	Send(ctx context.Context, msg bus.OutboundMessage) error
}

// BaseChannel holds what every channel shares: its name, the bus, the
// sender allow-list and redelivery deduplication.
type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	allowFrom []string
	dedupe    *bus.DedupeCache
}

// NewBaseChannel creates a BaseChannel. An empty allowFrom accepts every sender.
func NewBaseChannel(name string, msgBus *bus.MessageBus, allowFrom []string) *BaseChannel {
	return &BaseChannel{
		name:      name,
		bus:       msgBus,
		allowFrom: allowFrom,
		dedupe:    bus.NewDedupeCache(0, 0),
	}
}

func (b *BaseChannel) Name() string { return b.name }

func (b *BaseChannel) Bus() *bus.MessageBus { return b.bus }

// IsAllowed checks a sender against the allow-list. senderID may carry a
// username after a '|' ("123|alice"); entries match either part, with or
// without a leading '@'.
func (b *BaseChannel) IsAllowed(senderID string) bool {
	if len(b.allowFrom) == 0 {
		return true
	}
	id, username, _ := strings.Cut(senderID, "|")
	for _, allowed := range b.allowFrom {
		allowed = strings.TrimPrefix(strings.TrimSpace(allowed), "@")
		if allowed == "" {
			continue
		}
		if allowed == id || (username != "" && strings.EqualFold(allowed, username)) {
			return true
		}
	}
	return false
}

// HandleMessage filters an incoming message and publishes it on the bus.
// It reports whether the message was accepted.
func (b *BaseChannel) HandleMessage(ctx context.Context, msg bus.InboundMessage) bool {
	msg.Channel = b.name
	if !b.IsAllowed(msg.SenderID) {
		slog.Warn("security.channel_sender_rejected", "channel", b.name, "sender", msg.SenderID)
		return false
	}
	if store.ValidateUserID(msg.SenderID) != nil {
		slog.Warn("security.user_id_too_long", "channel", b.name)
		return false
	}
	if strings.TrimSpace(msg.Content) == "" {
		return false
	}
	if msg.MessageID != "" && b.dedupe.IsDuplicate(b.name+":"+msg.ChatID+":"+msg.MessageID) {
		slog.Debug("duplicate channel message dropped", "channel", b.name, "message_id", msg.MessageID)
		return false
	}
	return b.bus.PublishInbound(ctx, msg)
}

// AllowList returns a copy of the configured allow-list.
func (b *BaseChannel) AllowList() []string { return slices.Clone(b.allowFrom) }
