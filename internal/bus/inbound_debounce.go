package bus

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// InboundDebouncer buffers rapid messages from the same sender in the same
// chat and merges them into one question, so "how do I" followed by
// "pay fees" is matched as a whole.
type InboundDebouncer struct {
	window  time.Duration
	mu      sync.Mutex
	buffers map[string]*debounceBuffer
	flushFn func(InboundMessage)
}

type debounceBuffer struct {
	messages []InboundMessage
	timer    *time.Timer
}

// NewInboundDebouncer creates a debouncer with the given quiet window.
// A window <= 0 disables buffering.
func NewInboundDebouncer(window time.Duration, flushFn func(InboundMessage)) *InboundDebouncer {
	return &InboundDebouncer{
		window:  window,
		buffers: make(map[string]*debounceBuffer),
		flushFn: flushFn,
	}
}

// Push adds a message. It is flushed after window of silence from its sender.
func (d *InboundDebouncer) Push(msg InboundMessage) {
	if d.window <= 0 {
		d.flushFn(msg)
		return
	}

	key := debounceKey(msg)

	d.mu.Lock()
	defer d.mu.Unlock()

	buf, exists := d.buffers[key]
	if !exists {
		buf = &debounceBuffer{}
		d.buffers[key] = buf
	}
	buf.messages = append(buf.messages, msg)

	if buf.timer != nil {
		buf.timer.Stop()
	}
	buf.timer = time.AfterFunc(d.window, func() { d.flushKey(key) })
}

// Stop flushes every pending buffer immediately.
func (d *InboundDebouncer) Stop() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.buffers))
	for k := range d.buffers {
		keys = append(keys, k)
	}
	d.mu.Unlock()

	for _, key := range keys {
		d.flushKey(key)
	}
}

func (d *InboundDebouncer) flushKey(key string) {
	d.mu.Lock()
	buf, exists := d.buffers[key]
	if !exists || len(buf.messages) == 0 {
		d.mu.Unlock()
		return
	}
	if buf.timer != nil {
		buf.timer.Stop()
	}
	msgs := buf.messages
	delete(d.buffers, key)
	d.mu.Unlock()

	merged := mergeInboundMessages(msgs)
	if len(msgs) > 1 {
		slog.Debug("inbound debounce: merged messages",
			"key", key, "count", len(msgs), "preview", truncateStr(merged.Content, 80))
	}
	d.flushFn(merged)
}

// debounceKey builds the buffer key: channel:chatID:senderID.
func debounceKey(msg InboundMessage) string {
	return msg.Channel + ":" + msg.ChatID + ":" + msg.SenderID
}

// mergeInboundMessages joins contents with spaces; other fields come from
// the last message.
func mergeInboundMessages(msgs []InboundMessage) InboundMessage {
	if len(msgs) == 1 {
		return msgs[0]
	}
	last := msgs[len(msgs)-1]
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if s := strings.TrimSpace(m.Content); s != "" {
			parts = append(parts, s)
		}
	}
	last.Content = strings.Join(parts, " ")
	return last
}

func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
