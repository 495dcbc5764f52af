package telegram

const (
	// telegramMaxMessageLen is the safe limit for Telegram messages.
	// Telegram's hard limit is 4096.
	telegramMaxMessageLen = 4000

	// maxTopicsListed caps the /topics reply.
	maxTopicsListed = 30

	channelName = "telegram"
)
