package channels

import (
	"context"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/faqclaw/internal/bus"
	"github.com/nextlevelbuilder/faqclaw/internal/chat"
	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

// Replier produces the reply for one question.
type Replier interface {
	Reply(ctx context.Context, query string) chat.Reply
}

// Dispatcher answers inbound channel messages and publishes the replies.
type Dispatcher struct {
	bus      *bus.MessageBus
	replier  Replier
	debounce time.Duration
}

// NewDispatcher creates a dispatcher. debounce > 0 merges rapid messages
// from one sender before answering.
func NewDispatcher(msgBus *bus.MessageBus, replier Replier, debounce time.Duration) *Dispatcher {
	return &Dispatcher{bus: msgBus, replier: replier, debounce: debounce}
}

// Run consumes inbound messages until ctx is done. Pending debounced
// messages are answered before it returns.
func (d *Dispatcher) Run(ctx context.Context) {
	replyCtx := context.WithoutCancel(ctx)
	debouncer := bus.NewInboundDebouncer(d.debounce, func(msg bus.InboundMessage) {
		d.answer(replyCtx, msg)
	})

	for {
		msg, ok := d.bus.ConsumeInbound(ctx)
		if !ok {
			break
		}
		debouncer.Push(msg)
	}
	debouncer.Stop()
}

func (d *Dispatcher) answer(ctx context.Context, msg bus.InboundMessage) {
	ctx = store.WithChannel(store.WithUserID(ctx, msg.SenderID), msg.Channel)
	reply := d.replier.Reply(ctx, msg.Content)
	slog.Info("channel message answered",
		"channel", msg.Channel, "chat_id", msg.ChatID,
		"matched", reply.Matched, "score", reply.Score)

	out := bus.OutboundMessage{
		Channel:  msg.Channel,
		ChatID:   msg.ChatID,
		Content:  reply.Text,
		ReplyTo:  msg.MessageID,
		Metadata: msg.Metadata,
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if !d.bus.PublishOutbound(pubCtx, out) {
		slog.Warn("outbound queue full, reply dropped", "channel", msg.Channel, "chat_id", msg.ChatID)
	}
}
