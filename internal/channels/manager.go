package channels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/nextlevelbuilder/faqclaw/internal/bus"
)

// ErrUnknownChannel is returned when an outbound message names a channel
// that is not registered.
var ErrUnknownChannel = errors.New("unknown channel")

// Manager owns the enabled channels and delivers outbound messages to them.
type Manager struct {
	bus      *bus.MessageBus
	mu       sync.RWMutex
	channels map[string]Channel
	wg       sync.WaitGroup
}

func NewManager(msgBus *bus.MessageBus) *Manager {
	return &Manager{bus: msgBus, channels: make(map[string]Channel)}
}

// Register adds a channel. A later channel with the same name replaces it.
func (m *Manager) Register(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[ch.Name()] = ch
}

// Channel returns a registered channel by name.
func (m *Manager) Channel(name string) (Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[name]
	return ch, ok
}

// Names returns the registered channel names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// StartAll starts every channel and the outbound delivery loop. A channel
// that fails to start is logged and skipped; the error lists all failures.
func (m *Manager) StartAll(ctx context.Context) error {
	var errs []error
	for _, name := range m.Names() {
		ch, _ := m.Channel(name)
		if err := ch.Start(ctx); err != nil {
			slog.Error("channel start failed", "channel", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		slog.Info("channel started", "channel", name)
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.deliverLoop(ctx)
	}()
	return errors.Join(errs...)
}

// StopAll stops every channel and waits for the delivery loop, which ends
// with the ctx passed to StartAll.
func (m *Manager) StopAll(ctx context.Context) {
	for _, name := range m.Names() {
		ch, _ := m.Channel(name)
		if err := ch.Stop(ctx); err != nil {
			slog.Warn("channel stop failed", "channel", name, "error", err)
		}
	}
	m.wg.Wait()
}

func (m *Manager) deliverLoop(ctx context.Context) {
	for {
		msg, ok := m.bus.SubscribeOutbound(ctx)
		if !ok {
			return
		}
		if err := m.Deliver(ctx, msg); err != nil {
			slog.Warn("outbound delivery failed", "channel", msg.Channel, "chat_id", msg.ChatID, "error", err)
		}
	}
}

// Deliver sends msg through the channel it names.
func (m *Manager) Deliver(ctx context.Context, msg bus.OutboundMessage) error {
	ch, ok := m.Channel(msg.Channel)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, msg.Channel)
	}
	return ch.Send(ctx, msg)
}
