package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize canonicalizes text for comparison: lowercase, every rune that is
// neither a word character nor whitespace replaced by a space, whitespace runs
// collapsed to a single space, leading/trailing whitespace removed.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	// A Caser is stateful, so one is built per call.
	lower := cases.Lower(language.Und).String(text)
	cleaned := strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, lower)
	return strings.Join(strings.Fields(cleaned), " ")
}

// isWordRune reports whether r is a Unicode word character: a letter, mark,
// digit or connector punctuation ("_").
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) ||
		unicode.IsMark(r) ||
		unicode.IsDigit(r) ||
		unicode.Is(unicode.Pc, r)
}
