// Package match scores free-form user queries against stored FAQ questions.
//
// Scoring blends character-level similarity (Levenshtein over normalized text)
// with fuzzy keyword overlap. Everything here is pure: the knowledge base is
// passed in on every call and nothing is retained between calls except the
// optional derived-text cache of a Scorer.
package match

// Default engine parameters.
const (
	DefaultThreshold      = 70.0 // combined score a match must strictly exceed
	DefaultTokenThreshold = 80.0 // similarity two keywords must strictly exceed to count as equal
	DefaultStringWeight   = 0.4
	DefaultKeywordWeight  = 0.6
	DefaultMinKeywordLen  = 2 // keywords are longer than this many runes
)

// Candidate is a stored question/answer pair eligible for matching.
type Candidate struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MatchResult is a scored candidate. Index is the candidate's position in the
// slice it was selected from.
type MatchResult struct {
	Candidate Candidate `json:"candidate"`
	Score     float64   `json:"score"`
	Index     int       `json:"index"`
}
