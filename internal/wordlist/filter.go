package wordlist

import (
	"fmt"
	"strings"
)

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForLang returns a language-specific filter for word lists. Practice
// texts are judged one rune per key, so "en" keeps plain lowercase ASCII.
func FilterForLang(lang string) FilterFunc {
	switch strings.ToLower(lang) {
	case "en":
		return filterEnglishASCII
	default:
		return func(string) bool { return true }
	}
}

// Apply keeps the words accepted by keep. It fails when nothing survives.
func Apply(words []string, keep FilterFunc) ([]string, error) {
	out := make([]string, 0, len(words))
	for _, word := range words {
		if keep(word) {
			out = append(out, word)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no words left after filtering")
	}
	return out, nil
}

func filterEnglishASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}
