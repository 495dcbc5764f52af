package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nextlevelbuilder/faqclaw/internal/match"
	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

type stubSource struct {
	entries []store.FAQEntry
	err     error
}

func (s *stubSource) Snapshot() ([]store.FAQEntry, []match.Candidate) {
	cands := make([]match.Candidate, len(s.entries))
	for i, e := range s.entries {
		cands[i] = match.Candidate{Question: e.Question, Answer: e.Answer}
	}
	return s.entries, cands
}

func (s *stubSource) LoadErr() error { return s.err }

func schoolFAQ() *stubSource {
	return &stubSource{entries: []store.FAQEntry{
		{BaseModel: store.BaseModel{ID: store.GenNewID()}, Question: "What are the school hours?", Answer: "Classes run from 8:00 to 15:00."},
		{BaseModel: store.BaseModel{ID: store.GenNewID()}, Question: "How do I pay school fees?", Answer: "Fees are paid online."},
		{BaseModel: store.BaseModel{ID: store.GenNewID()}, Question: "What is the refund policy?", Answer: ""},
		{BaseModel: store.BaseModel{ID: store.GenNewID()}, Question: "Is there a school uniform?", Answer: "Yes."},
		{BaseModel: store.BaseModel{ID: store.GenNewID()}, Question: "Where is the library?", Answer: "Building B."},
	}}
}

func newTestResponder(t *testing.T, src Source, opts Options) *Responder {
	t.Helper()
	r, err := NewResponder(src, opts)
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}
	return r
}

func TestReplyMatched(t *testing.T) {
	src := schoolFAQ()
	r := newTestResponder(t, src, DefaultOptions())

	got := r.Reply(context.Background(), "what are the school hours")
	if !got.Matched {
		t.Fatalf("expected a match, got %+v", got)
	}
	if got.Text != "Classes run from 8:00 to 15:00." {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Entry == nil || got.Entry.ID != src.entries[0].ID {
		t.Errorf("Entry = %+v, want first entry", got.Entry)
	}
	if got.Score <= match.DefaultThreshold {
		t.Errorf("Score = %v, want > %v", got.Score, match.DefaultThreshold)
	}
}

func TestReplyNoAnswer(t *testing.T) {
	r := newTestResponder(t, schoolFAQ(), DefaultOptions())
	got := r.Reply(context.Background(), "What is the refund policy?")
	if !got.Matched || got.Text != DefaultReplies().NoAnswer {
		t.Errorf("Reply = %+v, want matched NoAnswer text", got)
	}
}

func TestReplyFallbackTexts(t *testing.T) {
	d := DefaultReplies()
	tests := []struct {
		name  string
		src   *stubSource
		query string
		want  string
	}{
		{"empty_kb", &stubSource{}, "what are the school hours", d.Empty},
		{"blank_query", schoolFAQ(), "   ", d.Fallback},
		{"load_error", &stubSource{err: errors.New("db down")}, "what are the school hours", d.Error},
		{"no_match", schoolFAQ(), "quantum physics homework", d.Fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResponder(t, tt.src, DefaultOptions())
			got := r.Reply(context.Background(), tt.query)
			if got.Matched {
				t.Fatalf("unexpected match: %+v", got)
			}
			if got.Text != tt.want {
				t.Errorf("Text = %q, want %q", got.Text, tt.want)
			}
		})
	}
}

func TestReplySuggestions(t *testing.T) {
	opts := DefaultOptions()
	opts.Suggestions = 2
	r := newTestResponder(t, schoolFAQ(), opts)
	got := r.Reply(context.Background(), "what is the school uniform policy")
	if got.Matched {
		t.Fatalf("unexpected match: %+v", got)
	}

	var qs []string
	for _, s := range got.Suggestions {
		qs = append(qs, s.Question)
	}
	want := []string{"What is the refund policy?", "What are the school hours?"}
	if diff := cmp.Diff(want, qs); diff != "" {
		t.Errorf("suggestions mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(got.Text, DefaultReplies().Fallback) {
		t.Errorf("Text should start with fallback, got %q", got.Text)
	}
	if !strings.Contains(got.Text, "Did you mean:\n• What is the refund policy?\n• What are the school hours?") {
		t.Errorf("Text missing suggestion list: %q", got.Text)
	}

	opts.Suggestions = -1
	r = newTestResponder(t, schoolFAQ(), opts)
	if got := r.Reply(context.Background(), "what is the school uniform policy"); len(got.Suggestions) != 0 {
		t.Errorf("suggestions disabled but got %v", got.Suggestions)
	}
}

func TestUpdateOptions(t *testing.T) {
	r := newTestResponder(t, schoolFAQ(), DefaultOptions())

	// "how do i pay the school fees" scores about 82 against the fees question.
	if got := r.Reply(context.Background(), "how do i pay the school fees"); !got.Matched {
		t.Fatalf("expected match at default threshold, got %+v", got)
	}

	opts := r.Options()
	opts.Match.Threshold = 90
	opts.Replies.Fallback = "Ask the office."
	if err := r.UpdateOptions(opts); err != nil {
		t.Fatalf("UpdateOptions: %v", err)
	}
	got := r.Reply(context.Background(), "how do i pay the school fees")
	if got.Matched {
		t.Fatalf("expected no match at threshold 90, got %+v", got)
	}
	if !strings.HasPrefix(got.Text, "Ask the office.") {
		t.Errorf("Text = %q, want custom fallback", got.Text)
	}

	bad := r.Options()
	bad.Match.StringWeight = 0.9
	if err := r.UpdateOptions(bad); err == nil {
		t.Error("expected validation error for weights not summing to 1")
	}
	if r.Options().Match.Threshold != 90 {
		t.Error("failed update must keep previous options")
	}
}

func TestReplyZeroThreshold(t *testing.T) {
	opts := DefaultOptions()
	opts.Match.Threshold = 0
	r := newTestResponder(t, schoolFAQ(), opts)

	if got := r.Options().Match.Threshold; got != 0 {
		t.Fatalf("Threshold = %v, want 0 kept", got)
	}
	// Scores well under the default 70 but above zero.
	if got := newTestResponder(t, schoolFAQ(), DefaultOptions()).Reply(context.Background(), "uniform policy"); got.Matched {
		t.Fatalf("default threshold should reject %q, got %+v", "uniform policy", got)
	}
	got := r.Reply(context.Background(), "uniform policy")
	if !got.Matched {
		t.Errorf("expected a match at threshold 0, got %+v", got)
	}
}

func TestMatch(t *testing.T) {
	src := schoolFAQ()
	r := newTestResponder(t, src, DefaultOptions())

	res, err := r.Match(context.Background(), "how do i pay the school fees", 0, 2)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Threshold != match.DefaultThreshold {
		t.Errorf("Threshold = %v, want default", res.Threshold)
	}
	if len(res.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(res.Results))
	}
	if res.Best == nil || res.Best.Entry.ID != src.entries[1].ID || res.Best.Index != 1 {
		t.Errorf("Best = %+v, want fees entry", res.Best)
	}
	if res.Results[0].Score < res.Results[1].Score {
		t.Error("results not sorted by score")
	}

	res, err = r.Match(context.Background(), "how do i pay the school fees", 95, 0)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Best != nil {
		t.Errorf("Best = %+v, want nil at threshold 95", res.Best)
	}
	if len(res.Results) != len(src.entries) {
		t.Errorf("limit 0 should return all results, got %d", len(res.Results))
	}

	if _, err := newTestResponder(t, &stubSource{err: errors.New("down")}, DefaultOptions()).Match(context.Background(), "x", 0, 0); err == nil {
		t.Error("expected load error from Match")
	}
}
