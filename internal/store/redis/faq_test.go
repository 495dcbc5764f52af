package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

func newTestStore(t *testing.T) *FAQStore {
	t.Helper()
	addr := os.Getenv("FAQCLAW_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FAQCLAW_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	key := fmt.Sprintf("faqclaw:test:%d", time.Now().UnixNano())
	s, err := NewFAQStore(ctx, Options{Addr: addr, Key: key})
	if err != nil {
		t.Fatalf("NewFAQStore: %v", err)
	}
	t.Cleanup(func() {
		s.client.Del(context.Background(), key)
		s.Close()
	})
	return s
}

func TestRedisFAQStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := &store.FAQEntry{Question: "What are the school hours?", Answer: "8 to 3"}
	b := &store.FAQEntry{Question: "How do I pay school fees?", Answer: "Online"}
	for _, e := range []*store.FAQEntry{a, b} {
		if err := s.Put(ctx, e); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	a.Answer = "8:00 to 15:00"
	if err := s.Put(ctx, a); err != nil {
		t.Fatalf("Put update: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != a.ID || list[0].Answer != "8:00 to 15:00" {
		t.Fatalf("unexpected list: %+v", list)
	}

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, a.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Delete missing error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete last: %v", err)
	}
	list, err = s.List(ctx)
	if err != nil || len(list) != 0 {
		t.Errorf("List after deleting all = %v, %v", list, err)
	}
}

func TestRedisFAQStoreConcurrentPut(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Put(ctx, &store.FAQEntry{Question: fmt.Sprintf("Question %d?", i)}); err != nil {
				t.Errorf("Put %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 4 {
		t.Errorf("len = %d, want 4", len(list))
	}
}
