// Package telegram answers FAQ questions over a Telegram bot using long polling.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/nextlevelbuilder/faqclaw/internal/bus"
	"github.com/nextlevelbuilder/faqclaw/internal/channels"
	"github.com/nextlevelbuilder/faqclaw/internal/config"
)

// Channel is the Telegram bot connection.
type Channel struct {
	*channels.BaseChannel
	bot    *telego.Bot
	topics func() []string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Telegram channel. topics feeds the /topics command and may be nil.
func New(cfg config.TelegramConfig, msgBus *bus.MessageBus, topics func() []string) (*Channel, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Channel{
		BaseChannel: channels.NewBaseChannel(channelName, msgBus, cfg.AllowFrom),
		bot:         bot,
		topics:      topics,
	}, nil
}

// Start verifies the token, registers the command menu and begins long polling.
func (c *Channel) Start(ctx context.Context) error {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	if err := c.SyncMenuCommands(ctx, DefaultMenuCommands()); err != nil {
		slog.Warn("telegram setMyCommands failed", "error", err)
	}

	pollCtx, cancel := context.WithCancel(ctx)
	updates, err := c.bot.UpdatesViaLongPolling(pollCtx, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("telegram long polling: %w", err)
	}

	c.mu.Lock()
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	slog.Info("telegram bot connected", "username", me.Username)
	go func() {
		defer close(done)
		for update := range updates {
			if update.Message != nil {
				c.handleMessage(pollCtx, update.Message)
			}
		}
	}()
	return nil
}

// Stop ends long polling and waits for the update loop to drain.
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

// Send delivers a reply, split to Telegram's message size limit.
func (c *Channel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	chatID, err := parseChatID(msg.ChatID)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}
	replyTo, _ := strconv.Atoi(msg.ReplyTo)

	for i, chunk := range channels.SplitMessage(msg.Content, telegramMaxMessageLen) {
		params := tu.Message(tu.ID(chatID), chunk)
		if i == 0 && replyTo > 0 {
			params.ReplyParameters = &telego.ReplyParameters{MessageID: replyTo, AllowSendingWithoutReply: true}
		}
		if _, err := c.bot.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

func (c *Channel) handleMessage(ctx context.Context, m *telego.Message) {
	if m.From == nil || m.From.IsBot {
		return
	}
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}

	senderID := strconv.FormatInt(m.From.ID, 10)
	if m.From.Username != "" {
		senderID += "|" + m.From.Username
	}
	if !c.IsAllowed(senderID) {
		slog.Warn("security.channel_sender_rejected", "channel", channelName, "user_id", m.From.ID)
		return
	}

	if c.handleBotCommand(ctx, m.Chat.ID, text) {
		return
	}

	isGroup := m.Chat.Type != telego.ChatTypePrivate
	if isGroup {
		var ok bool
		if text, ok = stripMention(text, c.bot.Username()); !ok && !isReplyToBot(m, c.bot.Username()) {
			return
		}
	}

	c.HandleMessage(ctx, bus.InboundMessage{
		ChatID:    strconv.FormatInt(m.Chat.ID, 10),
		SenderID:  senderID,
		MessageID: strconv.Itoa(m.MessageID),
		Content:   text,
		Metadata: map[string]string{
			"chat_type": m.Chat.Type,
			"user_name": buildUserName(m.From),
		},
	})
}

// stripMention removes "@botname" from group messages. ok is false when
// the bot is not mentioned.
func stripMention(text, botUsername string) (string, bool) {
	if botUsername == "" {
		return text, false
	}
	mention := "@" + botUsername
	idx := strings.Index(strings.ToLower(text), strings.ToLower(mention))
	if idx < 0 {
		return text, false
	}
	stripped := text[:idx] + text[idx+len(mention):]
	return strings.Join(strings.Fields(stripped), " "), true
}

func isReplyToBot(m *telego.Message, botUsername string) bool {
	r := m.ReplyToMessage
	return r != nil && r.From != nil && r.From.IsBot && strings.EqualFold(r.From.Username, botUsername)
}

func parseChatID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// buildUserName formats a Telegram user's display name.
func buildUserName(user *telego.User) string {
	if user == nil {
		return "unknown"
	}
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	return name
}
