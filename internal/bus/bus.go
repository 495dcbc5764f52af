// Package bus connects chat channels to the reply dispatcher.
package bus

import (
	"context"
	"sync"
)

const queueSize = 100

// MessageBus routes inbound messages from channels to the dispatcher and
// replies back, and fans out events to subscribers.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage

	// Event subscribers (subscriber ID → handler)
	subscribers map[string]EventHandler
	subMu       sync.RWMutex
}

func New() *MessageBus {
	return &MessageBus{
		inbound:     make(chan InboundMessage, queueSize),
		outbound:    make(chan OutboundMessage, queueSize),
		subscribers: make(map[string]EventHandler),
	}
}

// PublishInbound queues an inbound message. It blocks while the queue is
// full and returns false if ctx ends first.
func (mb *MessageBus) PublishInbound(ctx context.Context, msg InboundMessage) bool {
	select {
	case mb.inbound <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// ConsumeInbound blocks until an inbound message is available or ctx is cancelled.
func (mb *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case msg := <-mb.inbound:
		return msg, true
	case <-ctx.Done():
		return InboundMessage{}, false
	}
}

// PublishOutbound queues a reply for delivery.
func (mb *MessageBus) PublishOutbound(ctx context.Context, msg OutboundMessage) bool {
	select {
	case mb.outbound <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// SubscribeOutbound blocks until an outbound message is available or ctx is cancelled.
func (mb *MessageBus) SubscribeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case msg := <-mb.outbound:
		return msg, true
	case <-ctx.Done():
		return OutboundMessage{}, false
	}
}

// Subscribe registers an event subscriber under id, replacing any previous one.
func (mb *MessageBus) Subscribe(id string, handler EventHandler) {
	mb.subMu.Lock()
	defer mb.subMu.Unlock()
	mb.subscribers[id] = handler
}

// Unsubscribe removes an event subscriber.
func (mb *MessageBus) Unsubscribe(id string) {
	mb.subMu.Lock()
	defer mb.subMu.Unlock()
	delete(mb.subscribers, id)
}

// Broadcast sends an event to all subscribers.
func (mb *MessageBus) Broadcast(event Event) {
	mb.subMu.RLock()
	defer mb.subMu.RUnlock()
	for _, handler := range mb.subscribers {
		handler(event)
	}
}
