// Package corpus prepares training text for Markov models.
package corpus

import "unicode"

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// InAlphabet keeps words made only of the letters a-z, the alphabet the
// trainer emits.
func InAlphabet(word string) bool {
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

// MinLength wraps f and also drops words shorter than n runes.
func MinLength(n int, f FilterFunc) FilterFunc {
	return func(word string) bool {
		return len([]rune(word)) >= n && f(word)
	}
}

func kept(r rune) bool {
	return (r >= 'a' && r <= 'z') || r == '.' || r == ','
}

// Normalize lowercases text, keeps letters a-z plus '.' and ',', collapses
// whitespace runs into one space and trims both ends. Other characters are
// dropped without breaking the word they sit in.
func Normalize(text string) string {
	out := make([]rune, 0, len(text))
	prevSpace := true
	for _, r := range text {
		r = unicode.ToLower(r)
		switch {
		case unicode.IsSpace(r):
			if !prevSpace {
				out = append(out, ' ')
				prevSpace = true
			}
		case kept(r):
			out = append(out, r)
			prevSpace = false
		}
	}
	if len(out) > 0 && out[len(out)-1] == ' ' {
		out = out[:len(out)-1]
	}
	return string(out)
}
