package match

import (
	"context"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// parallelMin is the smallest candidate list worth fanning out over workers.
const parallelMin = 64

// weightSumTolerance absorbs float rounding in StringWeight+KeywordWeight.
const weightSumTolerance = 1e-9

// Options configures a Scorer. Every field is used as given, so start from
// DefaultOptions. Zero Workers or CacheSize disables the feature.
type Options struct {
	Threshold      float64 `json:"threshold"`
	TokenThreshold float64 `json:"tokenThreshold"`
	StringWeight   float64 `json:"stringWeight"`
	KeywordWeight  float64 `json:"keywordWeight"`
	MinKeywordLen  int     `json:"minKeywordLen"`
	Workers        int     `json:"workers"`
	CacheSize      int     `json:"cacheSize"`
}

// DefaultOptions returns the engine defaults: threshold 70, keyword cut-off 80,
// 40/60 string/keyword weighting.
func DefaultOptions() Options {
	return Options{
		Threshold:      DefaultThreshold,
		TokenThreshold: DefaultTokenThreshold,
		StringWeight:   DefaultStringWeight,
		KeywordWeight:  DefaultKeywordWeight,
		MinKeywordLen:  DefaultMinKeywordLen,
	}
}

// Validate reports parameter combinations that would push scores outside [0, 100].
func (o Options) Validate() error {
	if o.Threshold < 0 || o.Threshold > 100 {
		return fmt.Errorf("threshold %.2f outside [0, 100]", o.Threshold)
	}
	if o.TokenThreshold < 0 || o.TokenThreshold > 100 {
		return fmt.Errorf("token threshold %.2f outside [0, 100]", o.TokenThreshold)
	}
	if o.StringWeight < 0 || o.KeywordWeight < 0 {
		return fmt.Errorf("weights must not be negative")
	}
	if sum := o.StringWeight + o.KeywordWeight; math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("string and keyword weights must sum to 1, got %g", sum)
	}
	if o.MinKeywordLen < 0 {
		return fmt.Errorf("min keyword length %d is negative", o.MinKeywordLen)
	}
	return nil
}

// preparedText is the derived form of a piece of text used for scoring.
type preparedText struct {
	normalized string
	keywords   []string
}

// Scorer is a configured matching engine. It is safe for concurrent use.
type Scorer struct {
	opts  Options
	cache *lru.Cache[string, preparedText] // nil when caching is disabled
}

// NewScorer builds a Scorer from opts.
func NewScorer(opts Options) (*Scorer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &Scorer{opts: opts}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, preparedText](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("question cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Options returns the effective options.
func (s *Scorer) Options() Options { return s.opts }

// Score returns the combined similarity of a user query and a stored question.
func (s *Scorer) Score(userText, questionText string) float64 {
	return s.combine(s.prepare(userText), s.prepareQuestion(questionText))
}

func (s *Scorer) prepare(text string) preparedText {
	normalized := Normalize(text)
	return preparedText{
		normalized: normalized,
		keywords:   extractKeywords(normalized, s.opts.MinKeywordLen),
	}
}

// prepareQuestion goes through the cache: stored questions recur across
// queries while user text does not.
func (s *Scorer) prepareQuestion(question string) preparedText {
	if s.cache == nil {
		return s.prepare(question)
	}
	if p, ok := s.cache.Get(question); ok {
		return p
	}
	p := s.prepare(question)
	s.cache.Add(question, p)
	return p
}

func (s *Scorer) combine(user, question preparedText) float64 {
	stringSim := Similarity(user.normalized, question.normalized)
	keywordSim := keywordOverlap(user.keywords, question.keywords, s.opts.TokenThreshold)
	return stringSim*s.opts.StringWeight + keywordSim*s.opts.KeywordWeight
}

// scoreAll scores every candidate against the query, index-aligned with
// candidates.
func (s *Scorer) scoreAll(ctx context.Context, query string, candidates []Candidate) ([]float64, error) {
	user := s.prepare(query)
	scores := make([]float64, len(candidates))

	if s.opts.Workers <= 1 || len(candidates) < parallelMin {
		for i, c := range candidates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			scores[i] = s.combine(user, s.prepareQuestion(c.Question))
		}
		return scores, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = s.combine(user, s.prepareQuestion(candidates[i].Question))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// Best returns the highest-scoring candidate strictly above the configured
// threshold. The only error is ctx.Err().
func (s *Scorer) Best(ctx context.Context, query string, candidates []Candidate) (MatchResult, bool, error) {
	scores, err := s.scoreAll(ctx, query, candidates)
	if err != nil {
		return MatchResult{}, false, err
	}
	best, ok := selectBest(candidates, scores, s.opts.Threshold)
	return best, ok, nil
}

// Rank returns up to limit candidates ordered by score (limit <= 0 returns all).
func (s *Scorer) Rank(ctx context.Context, query string, candidates []Candidate, limit int) ([]MatchResult, error) {
	scores, err := s.scoreAll(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	return rankScores(candidates, scores, limit), nil
}
