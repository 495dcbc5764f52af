package bus

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMessageBusRoundTrip(t *testing.T) {
	mb := New()
	ctx := context.Background()

	in := InboundMessage{Channel: "telegram", ChatID: "1", SenderID: "7", Content: "hi"}
	if !mb.PublishInbound(ctx, in) {
		t.Fatal("PublishInbound returned false")
	}
	got, ok := mb.ConsumeInbound(ctx)
	if !ok || got.Content != "hi" {
		t.Errorf("ConsumeInbound = %+v, %v", got, ok)
	}

	mb.PublishOutbound(ctx, OutboundMessage{Channel: "telegram", ChatID: "1", Content: "hello"})
	out, ok := mb.SubscribeOutbound(ctx)
	if !ok || out.Content != "hello" {
		t.Errorf("SubscribeOutbound = %+v, %v", out, ok)
	}
}

func TestMessageBusCancelled(t *testing.T) {
	mb := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := mb.ConsumeInbound(ctx); ok {
		t.Error("ConsumeInbound on cancelled ctx should return false")
	}
	for range queueSize {
		mb.PublishOutbound(context.Background(), OutboundMessage{})
	}
	if mb.PublishOutbound(ctx, OutboundMessage{}) {
		t.Error("PublishOutbound on a full queue with cancelled ctx should return false")
	}
}

func TestBroadcast(t *testing.T) {
	mb := New()
	var got []string
	mb.Subscribe("a", func(e Event) { got = append(got, "a:"+e.Name) })
	mb.Subscribe("b", func(e Event) { got = append(got, "b:"+e.Name) })
	mb.Broadcast(Event{Name: "x"})
	if len(got) != 2 {
		t.Errorf("got %v, want two deliveries", got)
	}
	mb.Unsubscribe("a")
	got = nil
	mb.Broadcast(Event{Name: "y"})
	if len(got) != 1 || got[0] != "b:y" {
		t.Errorf("after unsubscribe got %v", got)
	}
}

func TestDedupeCache(t *testing.T) {
	d := NewDedupeCache(time.Minute, 3)
	now := time.Unix(1_700_000_000, 0)
	d.now = func() time.Time { return now }

	if d.IsDuplicate("a") {
		t.Error("first sighting reported as duplicate")
	}
	if !d.IsDuplicate("a") {
		t.Error("second sighting not reported as duplicate")
	}
	if d.IsDuplicate("") || d.IsDuplicate("") {
		t.Error("empty keys are never duplicates")
	}

	now = now.Add(2 * time.Minute)
	if d.IsDuplicate("a") {
		t.Error("expired key reported as duplicate")
	}

	for i, k := range []string{"b", "c", "d"} {
		now = now.Add(time.Duration(i+1) * time.Second)
		d.IsDuplicate(k)
	}
	if n := d.Len(); n != 3 {
		t.Errorf("Len = %d, want 3", n)
	}
	// "a" was the oldest and got evicted.
	if d.IsDuplicate("a") {
		t.Error("evicted key reported as duplicate")
	}
}

func TestDedupeDefaults(t *testing.T) {
	d := NewDedupeCache(0, 0)
	if d.ttl != DefaultDedupeTTL || d.maxSize != DefaultDedupeSize {
		t.Errorf("defaults = %v/%d", d.ttl, d.maxSize)
	}
}

func TestDebouncerPassThrough(t *testing.T) {
	var got []InboundMessage
	d := NewInboundDebouncer(0, func(m InboundMessage) { got = append(got, m) })
	d.Push(InboundMessage{Content: "a"})
	d.Push(InboundMessage{Content: "b"})
	if len(got) != 2 {
		t.Errorf("got %d flushes, want 2", len(got))
	}
}

func TestDebouncerMerges(t *testing.T) {
	var (
		mu  sync.Mutex
		got []InboundMessage
	)
	d := NewInboundDebouncer(time.Hour, func(m InboundMessage) {
		mu.Lock()
		got = append(got, m)
		mu.Unlock()
	})
	d.Push(InboundMessage{Channel: "c", ChatID: "1", SenderID: "u", Content: "how do I", MessageID: "1"})
	d.Push(InboundMessage{Channel: "c", ChatID: "1", SenderID: "u", Content: " pay fees ", MessageID: "2"})
	d.Push(InboundMessage{Channel: "c", ChatID: "2", SenderID: "u", Content: "hours"})
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("got %d flushes, want 2", len(got))
	}
	for _, m := range got {
		if m.ChatID == "1" && (m.Content != "how do I pay fees" || m.MessageID != "2") {
			t.Errorf("merged = %+v", m)
		}
	}
}
