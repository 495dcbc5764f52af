package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const startText = "Hi! I answer frequently asked questions.\n" +
	"Just send me your question, or use /topics to see what I know about."

const helpText = "Available commands:\n" +
	"/start - Start chatting with the bot\n" +
	"/help - Show this help message\n" +
	"/topics - List the topics I can answer\n" +
	"\nAny other message is treated as a question."

// handleBotCommand answers the built-in commands. It returns true if text
// was a command it handled.
func (c *Channel) handleBotCommand(ctx context.Context, chatID int64, text string) bool {
	if len(text) == 0 || text[0] != '/' {
		return false
	}

	// Strip arguments and the @botname suffix.
	cmd := strings.SplitN(text, " ", 2)[0]
	cmd = strings.SplitN(cmd, "@", 2)[0]
	cmd = strings.ToLower(cmd)

	var reply string
	switch cmd {
	case "/start":
		reply = startText
	case "/help":
		reply = helpText
	case "/topics":
		reply = c.topicsText()
	default:
		return false
	}

	if _, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), reply)); err != nil {
		slog.Warn("telegram command reply failed", "command", cmd, "chat_id", chatID, "error", err)
	}
	return true
}

func (c *Channel) topicsText() string {
	var topics []string
	if c.topics != nil {
		topics = c.topics()
	}
	return formatTopics(topics)
}

func formatTopics(topics []string) string {
	if len(topics) == 0 {
		return "I don't have any topics yet."
	}
	var sb strings.Builder
	sb.WriteString("I can answer questions about:\n")
	for i, t := range topics {
		if i == maxTopicsListed {
			fmt.Fprintf(&sb, "…and %d more", len(topics)-maxTopicsListed)
			break
		}
		sb.WriteString("• " + t + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// SyncMenuCommands registers bot commands with Telegram via setMyCommands.
func (c *Channel) SyncMenuCommands(ctx context.Context, commands []telego.BotCommand) error {
	if err := c.bot.DeleteMyCommands(ctx, nil); err != nil {
		slog.Debug("deleteMyCommands failed (may not exist)", "error", err)
	}
	if len(commands) == 0 {
		return nil
	}
	if len(commands) > 100 {
		commands = commands[:100]
	}
	return c.bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: commands,
	})
}

// DefaultMenuCommands returns the bot menu commands.
func DefaultMenuCommands() []telego.BotCommand {
	return []telego.BotCommand{
		{Command: "start", Description: "Start chatting with the bot"},
		{Command: "help", Description: "Show available commands"},
		{Command: "topics", Description: "List the topics I can answer"},
	}
}
