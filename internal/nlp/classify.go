package nlp

import (
	"math"

	"github.com/elemdex/elemdex/internal/config"
)

// Band is the qualitative classification of an element pair, derived from a
// Jaccard score and the entropy of each side's vocabulary.
type Band string

const (
	// BandSameDomain means two elements share substantial vocabulary and
	// that vocabulary is information-rich: a genuine topical relationship.
	BandSameDomain Band = "same-domain"

	// BandCommonWordOverlap means the overlap is driven by generic, low-
	// information vocabulary. Treated as a weak or false signal.
	BandCommonWordOverlap Band = "common-word-overlap"

	// BandDistinctDomains means different topics with comparable
	// structural complexity.
	BandDistinctDomains Band = "distinct-domains"

	// BandUnclassified means the edge is retained but not asserted as a
	// strong relationship.
	BandUnclassified Band = "unclassified"
)

// entropyDeltaSmall is the maximum entropy difference (in bits) at which two
// low-overlap elements count as structurally comparable.
const entropyDeltaSmall = 1.0

// Classify combines a Jaccard score and two entropy values into a Band using
// the configured thresholds. Non-recursive by construction.
func Classify(jaccard, entropyA, entropyB float64, cfg *config.Config) Band {
	jt := cfg.JaccardThresholds
	eb := cfg.EntropyBands

	if jaccard >= jt.High {
		if entropyA < eb.Low || entropyB < eb.Low {
			return BandCommonWordOverlap
		}
		if inBand(entropyA, eb) && inBand(entropyB, eb) {
			return BandSameDomain
		}
		return BandUnclassified
	}

	if jaccard <= jt.Low && math.Abs(entropyA-entropyB) <= entropyDeltaSmall {
		return BandDistinctDomains
	}

	return BandUnclassified
}

// inBand reports whether an entropy value falls within [moderate, high].
func inBand(entropy float64, eb config.EntropyBands) bool {
	return entropy >= eb.Moderate && entropy <= eb.High
}
