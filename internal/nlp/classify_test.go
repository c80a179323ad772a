package nlp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elemdex/elemdex/internal/config"
)

// Defaults: jaccard low=0.1 high=0.5, entropy low=2.0 moderate=3.5 high=5.5.

func TestClassify(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		name     string
		jaccard  float64
		entropyA float64
		entropyB float64
		want     Band
	}{
		{
			name:     "high overlap with rich vocabulary is same-domain",
			jaccard:  0.6,
			entropyA: 4.0,
			entropyB: 4.5,
			want:     BandSameDomain,
		},
		{
			name:     "high overlap at exact moderate boundary is same-domain",
			jaccard:  0.5,
			entropyA: 3.5,
			entropyB: 5.5,
			want:     BandSameDomain,
		},
		{
			name:     "high overlap with one low-entropy side is common-word-overlap",
			jaccard:  0.7,
			entropyA: 1.2,
			entropyB: 4.0,
			want:     BandCommonWordOverlap,
		},
		{
			name:     "high overlap with both sides low entropy is common-word-overlap",
			jaccard:  0.9,
			entropyA: 0.8,
			entropyB: 1.5,
			want:     BandCommonWordOverlap,
		},
		{
			name:     "high overlap with entropy above the band is unclassified",
			jaccard:  0.6,
			entropyA: 6.2,
			entropyB: 4.0,
			want:     BandUnclassified,
		},
		{
			name:     "high overlap with entropy between low and moderate is unclassified",
			jaccard:  0.6,
			entropyA: 2.5,
			entropyB: 4.0,
			want:     BandUnclassified,
		},
		{
			name:     "low overlap with similar entropy is distinct-domains",
			jaccard:  0.05,
			entropyA: 4.0,
			entropyB: 4.8,
			want:     BandDistinctDomains,
		},
		{
			name:     "low overlap with entropy delta over one bit is unclassified",
			jaccard:  0.05,
			entropyA: 2.0,
			entropyB: 4.5,
			want:     BandUnclassified,
		},
		{
			name:     "moderate overlap is unclassified",
			jaccard:  0.3,
			entropyA: 4.0,
			entropyB: 4.0,
			want:     BandUnclassified,
		},
		{
			name:     "zero overlap with equal entropy is distinct-domains",
			jaccard:  0,
			entropyA: 3.0,
			entropyB: 3.0,
			want:     BandDistinctDomains,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.jaccard, tt.entropyA, tt.entropyB, cfg)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_Symmetric(t *testing.T) {
	cfg := config.DefaultConfig()

	// Swapping the entropy arguments never changes the band.
	cases := [][3]float64{
		{0.6, 4.0, 5.0},
		{0.6, 1.0, 4.0},
		{0.05, 2.0, 4.5},
		{0.3, 3.0, 6.0},
	}
	for _, c := range cases {
		ab := Classify(c[0], c[1], c[2], cfg)
		ba := Classify(c[0], c[2], c[1], cfg)
		assert.Equal(t, ab, ba)
	}
}

// Two elements with identical information-rich content score Jaccard 1.0 with
// matching entropy and land in same-domain end to end.
func TestClassify_IdenticalContent(t *testing.T) {
	cfg := config.DefaultConfig()

	content := strings.Repeat("kubernetes deployment rollout canary ", 2) +
		"istio envoy sidecar mesh telemetry tracing observability grafana " +
		"prometheus alertmanager ingress gateway certificate rotation"
	tokens := Tokenize(content)

	j := Jaccard(TokenSet(tokens), TokenSet(tokens))
	e := Entropy(TokenCounts(tokens))

	assert.Equal(t, 1.0, j)
	assert.Equal(t, BandSameDomain, Classify(j, e, e, cfg))
}
