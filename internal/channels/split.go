package channels

import "strings"

// SplitMessage breaks text into chunks of at most limit runes, preferring
// paragraph then line then word boundaries.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var chunks []string
	rest := []rune(text)
	for len(rest) > limit {
		cut := limit
		if next := rest[limit]; next != ' ' && next != '\n' {
			window := string(rest[:limit])
			for _, sep := range []string{"\n\n", "\n", " "} {
				if i := strings.LastIndex(window, sep); i > 0 {
					cut = len([]rune(window[:i]))
					break
				}
			}
		}
		chunk := strings.TrimRight(string(rest[:cut]), " \n")
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		rest = []rune(strings.TrimLeft(string(rest[cut:]), " \n"))
	}
	if len(rest) > 0 {
		chunks = append(chunks, string(rest))
	}
	return chunks
}
