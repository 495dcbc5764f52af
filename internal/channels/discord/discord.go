// Package discord answers FAQ questions over the Discord gateway.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/faqclaw/internal/bus"
	"github.com/nextlevelbuilder/faqclaw/internal/channels"
	"github.com/nextlevelbuilder/faqclaw/internal/config"
)

const (
	channelName = "discord"
	// discordMaxMessageLen is Discord's message content limit.
	discordMaxMessageLen = 2000
)

// Channel is the Discord bot connection. Direct messages are always
// answered; guild messages only when the bot is mentioned.
type Channel struct {
	*channels.BaseChannel
	session *discordgo.Session
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a Discord channel from a bot token.
func New(cfg config.DiscordConfig, msgBus *bus.MessageBus) (*Channel, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	c := &Channel{
		BaseChannel: channels.NewBaseChannel(channelName, msgBus, cfg.AllowFrom),
		session:     session,
	}
	session.AddHandler(c.onMessageCreate)
	return c, nil
}

// Start opens the gateway websocket.
func (c *Channel) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	if err := c.session.Open(); err != nil {
		c.cancel()
		return fmt.Errorf("open discord session: %w", err)
	}
	if u := c.session.State.User; u != nil {
		slog.Info("discord bot connected", "username", u.Username)
	}
	return nil
}

// Stop closes the gateway websocket.
func (c *Channel) Stop(context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	return c.session.Close()
}

// Send posts a reply, split to Discord's content limit. The first chunk
// references the question message when known.
func (c *Channel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	for i, chunk := range channels.SplitMessage(msg.Content, discordMaxMessageLen) {
		var err error
		if i == 0 && msg.ReplyTo != "" {
			_, err = c.session.ChannelMessageSendReply(msg.ChatID, chunk, &discordgo.MessageReference{
				MessageID: msg.ReplyTo,
				ChannelID: msg.ChatID,
			}, discordgo.WithContext(ctx))
		} else {
			_, err = c.session.ChannelMessageSend(msg.ChatID, chunk, discordgo.WithContext(ctx))
		}
		if err != nil {
			return fmt.Errorf("discord send: %w", err)
		}
	}
	return nil
}

func (c *Channel) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || c.ctx == nil {
		return
	}
	botID := ""
	if s.State != nil && s.State.User != nil {
		botID = s.State.User.ID
	}

	text, ok := questionText(m.Content, m.GuildID, botID, mentionsUser(m.Mentions, botID))
	if !ok {
		return
	}

	c.HandleMessage(c.ctx, bus.InboundMessage{
		ChatID:    m.ChannelID,
		SenderID:  m.Author.ID + "|" + m.Author.Username,
		MessageID: m.ID,
		Content:   text,
		Metadata: map[string]string{
			"guild_id":  m.GuildID,
			"user_name": m.Author.Username,
		},
	})
}

// questionText decides whether a message is addressed to the bot and
// strips the bot mention. Messages without a guild are direct messages.
func questionText(content, guildID, botID string, mentioned bool) (string, bool) {
	if guildID != "" && !mentioned {
		return "", false
	}
	if botID != "" {
		content = strings.ReplaceAll(content, "<@"+botID+">", "")
		content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	}
	content = strings.Join(strings.Fields(content), " ")
	return content, content != ""
}

func mentionsUser(mentions []*discordgo.User, id string) bool {
	if id == "" {
		return false
	}
	for _, u := range mentions {
		if u != nil && u.ID == id {
			return true
		}
	}
	return false
}
