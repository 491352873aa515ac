package chat

import (
	"strings"
	"unicode"
)

// censor replaces any whole or leetspeak-obscured occurrence of a profane
// word with asterisks of the same length.
//
// No profanity-filtering library appears anywhere in the retrieval pack
// (see DESIGN.md), so this one subcomponent is deliberately hand-rolled
// against the standard library only, in spirit (not word list) of the
// original implementation's rustrict::CensorStr call.
var profaneWords = []string{
	"damn", "hell", "crap", "shit", "fuck", "bitch", "asshole", "bastard",
}

var leetReplacer = strings.NewReplacer(
	"0", "o", "1", "i", "3", "e", "4", "a", "5", "s", "7", "t", "@", "a", "$", "s",
)

func censor(s string) string {
	normalized := strings.ToLower(leetReplacer.Replace(s))

	runes := []rune(s)
	normRunes := []rune(normalized)
	if len(runes) != len(normRunes) {
		// Leet substitution can't change rune count (1:1 replacer), but
		// guard defensively rather than index out of range below.
		return s
	}

	masked := make([]bool, len(runes))
	for _, word := range profaneWords {
		w := []rune(word)
		for i := 0; i+len(w) <= len(normRunes); i++ {
			if !wordBoundary(normRunes, i, len(w)) {
				continue
			}
			if matchesAt(normRunes, i, w) {
				for j := i; j < i+len(w); j++ {
					masked[j] = true
				}
			}
		}
	}

	out := make([]rune, len(runes))
	for i, r := range runes {
		if masked[i] {
			out[i] = '*'
		} else {
			out[i] = r
		}
	}
	return string(out)
}

func matchesAt(s []rune, pos int, word []rune) bool {
	for i, r := range word {
		if s[pos+i] != r {
			return false
		}
	}
	return true
}

// wordBoundary requires the match not be flanked by another letter, so
// "hello" doesn't get flagged by a substring like "hell".
func wordBoundary(s []rune, pos, length int) bool {
	if pos > 0 && unicode.IsLetter(s[pos-1]) {
		return false
	}
	end := pos + length
	if end < len(s) && unicode.IsLetter(s[end]) {
		return false
	}
	return true
}
