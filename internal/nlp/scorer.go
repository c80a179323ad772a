package nlp

import (
	"math"
	"sort"
)

// Jaccard computes |A ∩ B| / |A ∪ B| over two token sets.
// Defined as 0 when both sets are empty to avoid NaN. Symmetric, and
// reflexive for non-empty sets.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	// Iterate the smaller set.
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	intersection := 0
	for t := range small {
		if _, ok := large[t]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Entropy computes the Shannon entropy -Σ p(x)·log2(p(x)) of a token
// frequency distribution. A single repeated token yields 0; a uniformly
// varied vocabulary yields log2(n).
func Entropy(counts map[string]int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}

	// Rounding in the summation can leave a tiny negative residue.
	if entropy < 0 {
		return 0
	}
	return entropy
}

// Keywords returns the top-frequency tokens of a frequency distribution,
// ties broken lexicographically for determinism. The caller applies
// population-level saturation filtering; a token's frequency within one
// element says nothing about how many elements contain it.
func Keywords(counts map[string]int, limit int) []string {
	if limit <= 0 || len(counts) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(counts))
	for t := range counts {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})

	if len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return tokens
}
