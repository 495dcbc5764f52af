// Package slack answers FAQ questions over Slack Socket Mode.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/nextlevelbuilder/faqclaw/internal/bus"
	"github.com/nextlevelbuilder/faqclaw/internal/channels"
	"github.com/nextlevelbuilder/faqclaw/internal/config"
)

const (
	channelName = "slack"
	// slackMaxMessageLen keeps replies well under Slack's text limit.
	slackMaxMessageLen = 3900
)

var mentionRe = regexp.MustCompile(`<@[A-Z0-9]+>`)

// Channel is the Slack app connection. Direct messages and app mentions
// are answered; replies go into the question's thread.
type Channel struct {
	*channels.BaseChannel
	api    *slack.Client
	client *socketmode.Client
	botID  string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Slack channel from a bot token (xoxb-) and an app-level
// token (xapp-).
func New(cfg config.SlackConfig, msgBus *bus.MessageBus) (*Channel, error) {
	if cfg.BotToken == "" || cfg.AppToken == "" {
		return nil, fmt.Errorf("slack bot and app tokens are required")
	}
	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	return &Channel{
		BaseChannel: channels.NewBaseChannel(channelName, msgBus, cfg.AllowFrom),
		api:         api,
		client:      socketmode.New(api),
	}, nil
}

// Start authenticates and runs the socket mode connection in the background.
func (c *Channel) Start(ctx context.Context) error {
	auth, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth test: %w", err)
	}
	c.botID = auth.UserID

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.mu.Lock()
	c.cancel, c.done = cancel, done
	c.mu.Unlock()

	go func() {
		if err := c.client.RunContext(runCtx); err != nil && runCtx.Err() == nil {
			slog.Error("slack socket mode stopped", "error", err)
		}
	}()
	go func() {
		defer close(done)
		c.eventLoop(runCtx)
	}()

	slog.Info("slack app connected", "team", auth.Team, "bot_user", auth.User)
	return nil
}

// Stop closes the socket mode connection.
func (c *Channel) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send posts the reply in the question's thread.
func (c *Channel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	thread := msg.Metadata["thread_ts"]
	if thread == "" {
		thread = msg.ReplyTo
	}
	for _, chunk := range channels.SplitMessage(msg.Content, slackMaxMessageLen) {
		opts := []slack.MsgOption{slack.MsgOptionText(chunk, false)}
		if thread != "" {
			opts = append(opts, slack.MsgOptionTS(thread))
		}
		if _, _, err := c.api.PostMessageContext(ctx, msg.ChatID, opts...); err != nil {
			return fmt.Errorf("slack post: %w", err)
		}
	}
	return nil
}

func (c *Channel) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-c.client.Events:
			if !ok {
				return
			}
			c.handleEvent(ctx, evt)
		}
	}
}

func (c *Channel) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnected:
		slog.Debug("slack socket mode connected")
	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			c.client.Ack(*evt.Request)
		}
		if apiEvent.Type != slackevents.CallbackEvent {
			return
		}
		switch ev := apiEvent.InnerEvent.Data.(type) {
		case *slackevents.AppMentionEvent:
			c.publish(ctx, ev.User, ev.Channel, ev.TimeStamp, ev.ThreadTimeStamp, ev.Text)
		case *slackevents.MessageEvent:
			// Channel messages arrive as app mentions; only DMs are taken here.
			if ev.ChannelType != "im" || ev.BotID != "" || ev.SubType != "" || ev.User == c.botID {
				return
			}
			c.publish(ctx, ev.User, ev.Channel, ev.TimeStamp, ev.ThreadTimeStamp, ev.Text)
		}
	}
}

func (c *Channel) publish(ctx context.Context, user, channel, ts, threadTS, text string) {
	text = cleanText(text)
	if user == "" || text == "" {
		return
	}
	if threadTS == "" {
		threadTS = ts
	}
	c.HandleMessage(ctx, bus.InboundMessage{
		ChatID:    channel,
		SenderID:  user,
		MessageID: ts,
		Content:   text,
		Metadata:  map[string]string{"thread_ts": threadTS},
	})
}

// cleanText drops user mentions and collapses whitespace.
func cleanText(text string) string {
	text = mentionRe.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
