package match

import "sort"

// CombinedSimilarity blends normalized string similarity (40%) with keyword
// overlap (60%). userText is the live query, questionText the stored question.
func CombinedSimilarity(userText, questionText string) float64 {
	stringSim := Similarity(Normalize(userText), Normalize(questionText))
	keywordSim := KeywordSimilarity(userText, questionText)
	return stringSim*DefaultStringWeight + keywordSim*DefaultKeywordWeight
}

// FindBestMatch scores every candidate question against query and returns
// the best one whose score strictly exceeds threshold. When several share the
// best score the earliest wins. ok is false for an empty list or when nothing
// qualifies.
func FindBestMatch(query string, candidates []Candidate, threshold float64) (result MatchResult, ok bool) {
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = CombinedSimilarity(query, c.Question)
	}
	return selectBest(candidates, scores, threshold)
}

// Rank scores every candidate with the default weights and returns up to
// limit results, best first; ties keep input order.
func Rank(query string, candidates []Candidate, limit int) []MatchResult {
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = CombinedSimilarity(query, c.Question)
	}
	return rankScores(candidates, scores, limit)
}

func selectBest(candidates []Candidate, scores []float64, threshold float64) (MatchResult, bool) {
	var best MatchResult
	found := false
	for i, score := range scores {
		if score > threshold && (!found || score > best.Score) {
			best = MatchResult{Candidate: candidates[i], Score: score, Index: i}
			found = true
		}
	}
	return best, found
}

func rankScores(candidates []Candidate, scores []float64, limit int) []MatchResult {
	results := make([]MatchResult, len(candidates))
	for i, c := range candidates {
		results[i] = MatchResult{Candidate: c, Score: scores[i], Index: i}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
