package bus

// InboundMessage is a user message received by a channel.
type InboundMessage struct {
	Channel   string            `json:"channel"`
	ChatID    string            `json:"chat_id"`
	SenderID  string            `json:"sender_id"`
	MessageID string            `json:"message_id,omitempty"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// OutboundMessage is a reply addressed to a channel chat.
type OutboundMessage struct {
	Channel  string            `json:"channel"`
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	ReplyTo  string            `json:"reply_to,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Event is a server-side notification fanned out to subscribers.
type Event struct {
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

// EventHandler receives broadcast events. It must not block.
type EventHandler func(Event)
