package match

import (
	"math"
	"testing"
)

var faqFixture = []Candidate{
	{Question: "When is the deadline for fee payment?", Answer: "A1"},
	{Question: "How do I register for courses?", Answer: "A2"},
}

func TestCombinedSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		user, q string
		want    float64
	}{
		{"exact match", "When is the deadline for fee payment?", "When is the deadline for fee payment?", 100},
		{"case and punctuation only", "when is the deadline for fee payment", "When is the deadline for fee payment?", 100},
		{"short query", "fee payment deadline", "When is the deadline for fee payment?", 41.111111111111114},
		{"rephrased", "How do I register for my courses", "How do I register for courses?", 96.25},
		{"no keywords on either side", "Hi to", "a b", 68},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CombinedSimilarity(tt.user, tt.q)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CombinedSimilarity(%q, %q) = %v, want %v", tt.user, tt.q, got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("score %v outside [0, 100]", got)
			}
		})
	}
}

func TestFindBestMatch_Empty(t *testing.T) {
	if res, ok := FindBestMatch("anything", nil, DefaultThreshold); ok {
		t.Errorf("expected no match for nil candidates, got %+v", res)
	}
	if res, ok := FindBestMatch("anything", []Candidate{}, DefaultThreshold); ok {
		t.Errorf("expected no match for empty candidates, got %+v", res)
	}
}

func TestFindBestMatch_PicksFeeQuestion(t *testing.T) {
	res, ok := FindBestMatch("what is the deadline for the fee payment", faqFixture, DefaultThreshold)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.Candidate.Answer != "A1" || res.Index != 0 {
		t.Errorf("expected fee-payment candidate, got %+v", res)
	}
	if res.Score <= DefaultThreshold {
		t.Errorf("score %v not above threshold", res.Score)
	}
}

func TestFindBestMatch_ShortQuery(t *testing.T) {
	// Three user keywords against six question keywords caps the overlap at
	// 50, so the short phrasing ranks first but stays below the default cut-off.
	if res, ok := FindBestMatch("fee payment deadline", faqFixture, DefaultThreshold); ok {
		t.Errorf("expected no match at default threshold, got %+v", res)
	}
	res, ok := FindBestMatch("fee payment deadline", faqFixture, 40)
	if !ok {
		t.Fatal("expected a match at threshold 40")
	}
	if res.Candidate.Answer != "A1" {
		t.Errorf("expected A1, got %q", res.Candidate.Answer)
	}
}

func TestFindBestMatch_ThresholdIsExclusive(t *testing.T) {
	q := faqFixture[0].Question
	if _, ok := FindBestMatch(q, faqFixture[:1], 100); ok {
		t.Error("score equal to threshold must not match")
	}
	if _, ok := FindBestMatch(q, faqFixture[:1], 99.99); !ok {
		t.Error("expected exact question to match just below 100")
	}
}

func TestFindBestMatch_NeverBelowThreshold(t *testing.T) {
	queries := []string{"fee", "register courses", "exam results", "", "When is the deadline for fee payment?"}
	for _, q := range queries {
		for _, threshold := range []float64{0, 20, 41.111111111111114, 70, 96.25} {
			res, ok := FindBestMatch(q, faqFixture, threshold)
			if ok && res.Score <= threshold {
				t.Errorf("FindBestMatch(%q, %v) returned score %v", q, threshold, res.Score)
			}
		}
	}
}

func TestFindBestMatch_TieKeepsFirst(t *testing.T) {
	candidates := []Candidate{
		{Question: "How do I register for courses?", Answer: "first"},
		{Question: "How do I register for courses?", Answer: "second"},
		{Question: "how do i register for courses", Answer: "third"},
	}
	res, ok := FindBestMatch("How do I register for courses?", candidates, DefaultThreshold)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.Candidate.Answer != "first" || res.Index != 0 {
		t.Errorf("expected first candidate on tie, got %+v", res)
	}
}

func TestFindBestMatch_HigherLaterWins(t *testing.T) {
	candidates := []Candidate{
		{Question: "How can I register for courses?", Answer: "close"},
		{Question: "How do I register for courses?", Answer: "exact"},
	}
	res, ok := FindBestMatch("How do I register for courses?", candidates, DefaultThreshold)
	if !ok || res.Candidate.Answer != "exact" || res.Index != 1 {
		t.Errorf("expected exact candidate at index 1, got %+v (ok=%v)", res, ok)
	}
}

func TestRank(t *testing.T) {
	results := Rank("fee payment deadline", faqFixture, 0)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Candidate.Answer != "A1" {
		t.Errorf("expected fee question first, got %q", results[0].Candidate.Answer)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not sorted: %v < %v", results[0].Score, results[1].Score)
	}

	limited := Rank("fee payment deadline", faqFixture, 1)
	if len(limited) != 1 || limited[0].Index != 0 {
		t.Errorf("limit 1: got %+v", limited)
	}
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	candidates := []Candidate{
		{Question: "alpha"},
		{Question: "zzz"},
		{Question: "alpha"},
	}
	results := Rank("alpha", candidates, 0)
	if results[0].Index != 0 || results[1].Index != 2 || results[2].Index != 1 {
		t.Errorf("unexpected order: %d %d %d", results[0].Index, results[1].Index, results[2].Index)
	}
}
