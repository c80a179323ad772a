// Package nlp provides the statistical scoring primitives for relationship
// discovery: a Unicode-aware tokenizer, Jaccard lexical overlap, and Shannon
// entropy as an information-density measure.
//
// Entropy substitutes for stop-word filtering. Content dominated by a handful
// of extremely frequent, low-information words scores low; a richly varied
// technical vocabulary scores higher. No per-language word list is needed and
// the same code handles any script.
//
// Everything here is pure: no state, no I/O, no suspension.
package nlp

import (
	"strings"
	"unicode"
)

// Tokenize transforms raw text into lowercase tokens. Characters that are not
// letters, numbers, whitespace, hyphen, or underscore are stripped using
// Unicode category tests, so non-Latin scripts tokenize the same way as ASCII.
func Tokenize(text string) []string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			sb.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		case r == '-' || r == '_':
			sb.WriteRune(r)
		}
	}
	return strings.Fields(sb.String())
}

// TokenSet collapses tokens into a set for Jaccard comparison.
func TokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// TokenCounts builds the frequency multiset used for entropy.
func TokenCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}
