package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "lowercases and splits on whitespace",
			text: "Creative Writer\tPersona",
			want: []string{"creative", "writer", "persona"},
		},
		{
			name: "strips punctuation",
			text: "debug, profile; and (trace)!",
			want: []string{"debug", "profile", "and", "trace"},
		},
		{
			name: "keeps hyphens and underscores",
			text: "cross-type snake_case",
			want: []string{"cross-type", "snake_case"},
		},
		{
			name: "keeps digits",
			text: "http2 utf8 v1.2",
			want: []string{"http2", "utf8", "v12"},
		},
		{
			name: "non-latin scripts tokenize by unicode category",
			text: "Schrödinger 東京 déjà-vu",
			want: []string{"schrödinger", "東京", "déjà-vu"},
		},
		{
			name: "punctuation only",
			text: "!!! ... ???",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenSet_Deduplicates(t *testing.T) {
	set := TokenSet([]string{"alpha", "beta", "alpha", "alpha"})
	assert.Len(t, set, 2)
	assert.Contains(t, set, "alpha")
	assert.Contains(t, set, "beta")
}

func TestTokenCounts(t *testing.T) {
	counts := TokenCounts([]string{"alpha", "beta", "alpha"})
	assert.Equal(t, map[string]int{"alpha": 2, "beta": 1}, counts)
}
