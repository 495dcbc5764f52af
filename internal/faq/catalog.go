// Package faq holds the in-memory knowledge-base snapshot the matcher
// scores against.
package faq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adhocore/gronx"

	"github.com/nextlevelbuilder/faqclaw/internal/match"
	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

type snapshot struct {
	entries    []store.FAQEntry
	candidates []match.Candidate
	loadedAt   time.Time
	err        error // set only while no load has succeeded
}

// Catalog caches the store contents. Readers get an immutable snapshot;
// Reload swaps it in one step, so entries and candidates always agree.
type Catalog struct {
	store store.FAQStore
	snap  atomic.Pointer[snapshot]

	mu       sync.Mutex // guards filter, onReload and serializes reloads
	filter   *Filter
	onReload func(entries int)
}

func NewCatalog(s store.FAQStore) *Catalog {
	c := &Catalog{store: s}
	c.snap.Store(&snapshot{})
	return c
}

// Store returns the backing store.
func (c *Catalog) Store() store.FAQStore { return c.store }

// SetFilter compiles expr and installs it for subsequent reloads.
// An empty expr removes the filter.
func (c *Catalog) SetFilter(expr string) error {
	var f *Filter
	if expr != "" {
		var err error
		if f, err = CompileFilter(expr); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
	return nil
}

// OnReload registers fn to run after every successful Reload with the new
// entry count. It replaces any previous hook. fn runs under the reload
// lock and must not call Reload or SetFilter.
func (c *Catalog) OnReload(fn func(entries int)) {
	c.mu.Lock()
	c.onReload = fn
	c.mu.Unlock()
}

// Reload reads the store and replaces the snapshot. On error the previous
// snapshot stays in place.
func (c *Catalog) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	entries, err := c.store.List(ctx)
	if err == nil && c.filter != nil {
		entries, err = c.filter.Apply(entries)
	}
	if err != nil {
		err = fmt.Errorf("load knowledge base: %w", err)
		if prev := c.snap.Load(); prev.loadedAt.IsZero() {
			c.snap.Store(&snapshot{err: err})
		}
		return err
	}

	cands := make([]match.Candidate, len(entries))
	for i, e := range entries {
		cands[i] = Candidate(e)
	}
	c.snap.Store(&snapshot{entries: entries, candidates: cands, loadedAt: time.Now()})

	slog.Info("faq catalog loaded",
		"entries", len(entries),
		"duration_ms", time.Since(start).Milliseconds())
	if c.onReload != nil {
		c.onReload(len(entries))
	}
	return nil
}

// Entries returns the current entries. Callers must not modify the slice.
func (c *Catalog) Entries() []store.FAQEntry {
	return c.snap.Load().entries
}

// Candidates returns the matcher view, index-aligned with Entries.
func (c *Catalog) Candidates() []match.Candidate {
	return c.snap.Load().candidates
}

// Snapshot returns entries and candidates from the same load.
func (c *Catalog) Snapshot() ([]store.FAQEntry, []match.Candidate) {
	s := c.snap.Load()
	return s.entries, s.candidates
}

// LoadErr returns the last reload error while the catalog has never loaded
// successfully. Once a snapshot exists, later failures keep serving it.
func (c *Catalog) LoadErr() error { return c.snap.Load().err }

// Len returns the number of entries in the current snapshot.
func (c *Catalog) Len() int { return len(c.snap.Load().entries) }

// LoadedAt returns when the current snapshot was built (zero before the
// first Reload).
func (c *Catalog) LoadedAt() time.Time { return c.snap.Load().loadedAt }

// Topics lists the distinct categories in entry order. When no entry has a
// category, it lists the questions instead.
func (c *Catalog) Topics() []string {
	entries := c.Entries()
	seen := make(map[string]bool)
	var topics []string
	for _, e := range entries {
		if e.Category != "" && !seen[e.Category] {
			seen[e.Category] = true
			topics = append(topics, e.Category)
		}
	}
	if len(topics) > 0 {
		return topics
	}
	for _, e := range entries {
		topics = append(topics, e.Question)
	}
	return topics
}

// Candidate projects an entry to the matcher's input type.
func Candidate(e store.FAQEntry) match.Candidate {
	return match.Candidate{Question: e.Question, Answer: e.Answer}
}

// ValidateSchedule checks a 5-field cron expression.
func ValidateSchedule(expr string) error {
	if !gronx.New().IsValid(expr) {
		return fmt.Errorf("invalid cron expression: %s", expr)
	}
	return nil
}

// StartRefresh reloads the catalog on the cron schedule expr until ctx is
// done. A failed reload is retried with backoff; if every attempt fails the
// previous snapshot is kept until the next tick.
func (c *Catalog) StartRefresh(ctx context.Context, expr string) error {
	return c.startRefresh(ctx, expr, DefaultRetryConfig())
}

func (c *Catalog) startRefresh(ctx context.Context, expr string, rc RetryConfig) error {
	if err := ValidateSchedule(expr); err != nil {
		return err
	}
	go c.refreshLoop(ctx, expr, rc)
	slog.Info("faq catalog refresh scheduled", "cron", expr)
	return nil
}

func (c *Catalog) refreshLoop(ctx context.Context, expr string, rc RetryConfig) {
	for {
		next, err := gronx.NextTickAfter(expr, time.Now(), false)
		if err != nil {
			slog.Error("faq refresh: failed to compute next run", "cron", expr, "error", err)
			return
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		attempts, err := retry(ctx, rc, func() error { return c.Reload(ctx) })
		if err != nil {
			slog.Warn("faq refresh failed", "attempts", attempts, "error", err)
		}
	}
}
