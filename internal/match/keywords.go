package match

import (
	"strings"
	"unicode/utf8"
)

// ExtractKeywords returns the tokens of the normalized text that are longer
// than two runes, in order of appearance. Duplicates are kept.
func ExtractKeywords(text string) []string {
	return extractKeywords(Normalize(text), DefaultMinKeywordLen)
}

// extractKeywords expects already normalized input.
func extractKeywords(normalized string, minLen int) []string {
	var keywords []string
	for _, tok := range strings.Fields(normalized) {
		if utf8.RuneCountInString(tok) > minLen {
			keywords = append(keywords, tok)
		}
	}
	return keywords
}

// KeywordSimilarity scores the fuzzy keyword overlap between a user query and
// a stored question on a 0–100 scale. The user's keywords drive the matching.
func KeywordSimilarity(userText, questionText string) float64 {
	return keywordOverlap(ExtractKeywords(userText), ExtractKeywords(questionText), DefaultTokenThreshold)
}

// keywordOverlap counts the user keywords that have a counterpart among the
// question keywords with similarity above tokenThreshold, relative to the
// longer of the two sequences.
func keywordOverlap(user, question []string, tokenThreshold float64) float64 {
	if len(user) == 0 && len(question) == 0 {
		return 100
	}
	if len(user) == 0 || len(question) == 0 {
		return 0
	}

	matched := 0
	for _, u := range user {
		for _, q := range question {
			if Similarity(u, q) > tokenThreshold {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(max(len(user), len(question))) * 100
}
