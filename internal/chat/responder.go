// Package chat turns a user message into a reply using the FAQ matcher.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/faqclaw/internal/match"
	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

// Suggestion defaults.
const (
	DefaultSuggestions     = 3
	DefaultSuggestMinScore = 40.0
)

// Source provides the knowledge-base snapshot. *faq.Catalog implements it.
type Source interface {
	Snapshot() ([]store.FAQEntry, []match.Candidate)
	LoadErr() error
}

// Options configures a Responder.
type Options struct {
	Match           match.Options
	Suggestions     int     // max "did you mean" entries on fallback; zero or negative disables
	SuggestMinScore float64 // minimum score for a suggestion
	Replies         Replies
}

// DefaultOptions returns the matcher defaults with three suggestions.
func DefaultOptions() Options {
	return Options{
		Match:           match.DefaultOptions(),
		Suggestions:     DefaultSuggestions,
		SuggestMinScore: DefaultSuggestMinScore,
		Replies:         DefaultReplies(),
	}
}

// Suggestion is a near-miss question offered on fallback.
type Suggestion struct {
	Question string  `json:"question"`
	Score    float64 `json:"score"`
}

// Reply is the outcome of answering one message.
type Reply struct {
	Text        string          `json:"text"`
	Matched     bool            `json:"matched"`
	Entry       *store.FAQEntry `json:"entry,omitempty"`
	Score       float64         `json:"score"`
	Suggestions []Suggestion    `json:"suggestions,omitempty"`
}

// RankedEntry is one scored entry.
type RankedEntry struct {
	Entry store.FAQEntry `json:"entry"`
	Score float64        `json:"score"`
	Index int            `json:"index"`
}

// MatchResult is the full ranking for a query plus the selected entry.
type MatchResult struct {
	Query     string        `json:"query"`
	Threshold float64       `json:"threshold"`
	Best      *RankedEntry  `json:"best"`
	Results   []RankedEntry `json:"results"`
}

// Responder answers messages from the current catalog snapshot.
type Responder struct {
	src    Source
	tracer trace.Tracer

	mu     sync.RWMutex
	opts   Options
	scorer *match.Scorer
}

// NewResponder validates opts and builds the scorer.
func NewResponder(src Source, opts Options) (*Responder, error) {
	r := &Responder{src: src, tracer: otel.Tracer("github.com/nextlevelbuilder/faqclaw/internal/chat")}
	if err := r.UpdateOptions(opts); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateOptions swaps matcher options and reply texts (config hot reload).
// Blank reply texts fall back to DefaultReplies; numeric options are used as given.
func (r *Responder) UpdateOptions(opts Options) error {
	opts.Replies = opts.Replies.withDefaults()

	scorer, err := match.NewScorer(opts.Match)
	if err != nil {
		return fmt.Errorf("responder options: %w", err)
	}
	r.mu.Lock()
	r.opts = opts
	r.scorer = scorer
	r.mu.Unlock()
	return nil
}

// Options returns the active options.
func (r *Responder) Options() Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

func (r *Responder) current() (Options, *match.Scorer) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts, r.scorer
}

// Reply answers query. It never fails: problems are logged and mapped to
// the configured fallback texts.
func (r *Responder) Reply(ctx context.Context, query string) Reply {
	ctx, span := r.tracer.Start(ctx, "faq.reply")
	defer span.End()

	opts, scorer := r.current()
	entries, cands := r.src.Snapshot()
	span.SetAttributes(attribute.Int("faq.candidates", len(cands)))

	reply := r.reply(ctx, opts, scorer, query, entries, cands)

	span.SetAttributes(
		attribute.Bool("faq.matched", reply.Matched),
		attribute.Float64("faq.score", reply.Score),
	)
	return reply
}

func (r *Responder) reply(ctx context.Context, opts Options, scorer *match.Scorer, query string, entries []store.FAQEntry, cands []match.Candidate) Reply {
	if strings.TrimSpace(query) == "" {
		return Reply{Text: opts.Replies.Fallback}
	}
	if err := r.src.LoadErr(); err != nil {
		slog.Error("faq reply: knowledge base unavailable", "error", err)
		trace.SpanFromContext(ctx).SetStatus(codes.Error, err.Error())
		return Reply{Text: opts.Replies.Error}
	}
	if len(cands) == 0 {
		return Reply{Text: opts.Replies.Empty}
	}

	ranked, err := scorer.Rank(ctx, query, cands, 0)
	if err != nil {
		slog.Error("faq reply: scoring failed", "error", err)
		trace.SpanFromContext(ctx).SetStatus(codes.Error, err.Error())
		return Reply{Text: opts.Replies.Error}
	}

	top := ranked[0]
	if top.Score > opts.Match.Threshold {
		e := entries[top.Index]
		text := e.Answer
		if strings.TrimSpace(text) == "" {
			text = opts.Replies.NoAnswer
		}
		slog.Debug("faq reply matched",
			"user", store.UserIDFromContext(ctx),
			"channel", store.ChannelFromContext(ctx),
			"score", top.Score,
			"entry", e.ID)
		return Reply{Text: text, Matched: true, Entry: &e, Score: top.Score}
	}

	out := Reply{Text: opts.Replies.Fallback, Score: top.Score}
	for _, res := range ranked {
		if len(out.Suggestions) >= opts.Suggestions || res.Score < opts.SuggestMinScore {
			break
		}
		out.Suggestions = append(out.Suggestions, Suggestion{Question: res.Candidate.Question, Score: res.Score})
	}
	if len(out.Suggestions) > 0 {
		var b strings.Builder
		b.WriteString(opts.Replies.Fallback)
		b.WriteString("\n\n")
		b.WriteString(opts.Replies.SuggestionHeader)
		for _, s := range out.Suggestions {
			b.WriteString("\n• ")
			b.WriteString(s.Question)
		}
		out.Text = b.String()
	}
	slog.Debug("faq reply fallback",
		"user", store.UserIDFromContext(ctx),
		"channel", store.ChannelFromContext(ctx),
		"best_score", top.Score,
		"suggestions", len(out.Suggestions))
	return out
}

// Match ranks every entry against query. threshold <= 0 uses the configured
// threshold; limit <= 0 returns all results. Best is selected before the
// limit is applied.
func (r *Responder) Match(ctx context.Context, query string, threshold float64, limit int) (MatchResult, error) {
	ctx, span := r.tracer.Start(ctx, "faq.match")
	defer span.End()

	opts, scorer := r.current()
	if threshold <= 0 {
		threshold = opts.Match.Threshold
	}
	if err := r.src.LoadErr(); err != nil {
		return MatchResult{}, err
	}
	entries, cands := r.src.Snapshot()
	span.SetAttributes(attribute.Int("faq.candidates", len(cands)))

	ranked, err := scorer.Rank(ctx, query, cands, 0)
	if err != nil {
		return MatchResult{}, err
	}

	res := MatchResult{Query: query, Threshold: threshold, Results: make([]RankedEntry, 0, len(ranked))}
	for _, m := range ranked {
		res.Results = append(res.Results, RankedEntry{Entry: entries[m.Index], Score: m.Score, Index: m.Index})
	}
	if len(res.Results) > 0 && res.Results[0].Score > threshold {
		best := res.Results[0]
		res.Best = &best
	}
	if limit > 0 && len(res.Results) > limit {
		res.Results = res.Results[:limit]
	}

	span.SetAttributes(attribute.Bool("faq.matched", res.Best != nil))
	return res, nil
}
