package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elemdex/elemdex/internal/nlp"
	"github.com/elemdex/elemdex/internal/relationship"
)

func sampleResult() *relationship.Result {
	return &relationship.Result{
		Edges: []relationship.Edge{
			{
				From:        "persona:writer",
				To:          "skill:editing",
				Jaccard:     0.62,
				EntropyFrom: 4.1,
				EntropyTo:   4.4,
				Band:        nlp.BandSameDomain,
			},
			{
				From:        "memory:style-notes",
				To:          "persona:writer",
				Jaccard:     0.08,
				EntropyFrom: 3.9,
				EntropyTo:   4.1,
				Band:        nlp.BandDistinctDomains,
			},
		},
		ElementCount: 3,
		Comparisons:  3,
	}
}

// =============================================================================
// Snapshot Tests
// =============================================================================

func TestNewSnapshot(t *testing.T) {
	snap := NewSnapshot(sampleResult(), "cfgv1")

	assert.Equal(t, 3, snap.ElementCount)
	assert.Equal(t, "cfgv1", snap.ConfigVersion)
	assert.Len(t, snap.Edges, 2)
	assert.NotEmpty(t, snap.Checksum)
	assert.WithinDuration(t, time.Now(), snap.BuiltAt, time.Second)
}

func TestSnapshot_Fresh(t *testing.T) {
	snap := NewSnapshot(sampleResult(), "cfgv1")
	ttl := 15 * time.Minute

	assert.True(t, snap.Fresh(ttl, snap.BuiltAt.Add(time.Minute)))
	assert.True(t, snap.Fresh(ttl, snap.BuiltAt.Add(ttl)))
	assert.False(t, snap.Fresh(ttl, snap.BuiltAt.Add(ttl+time.Second)))
}

func TestSnapshot_Related(t *testing.T) {
	snap := NewSnapshot(sampleResult(), "cfgv1")

	// Edges touching the element on either side.
	writer := snap.Related("persona:writer")
	assert.Len(t, writer, 2)

	editing := snap.Related("skill:editing")
	require.Len(t, editing, 1)
	assert.Equal(t, "persona:writer", editing[0].From)

	assert.Empty(t, snap.Related("agent:unknown"))
}

// =============================================================================
// Persist / Load Tests
// =============================================================================

func TestSnapshot_PersistLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relationships.json")

	snap := NewSnapshot(sampleResult(), "cfgv1")
	require.NoError(t, snap.Persist(path))

	loaded := LoadSnapshot(path, "cfgv1", nil)
	require.NotNil(t, loaded)
	assert.Equal(t, snap.Edges, loaded.Edges)
	assert.Equal(t, snap.Checksum, loaded.Checksum)
	assert.Equal(t, snap.ElementCount, loaded.ElementCount)
	assert.True(t, snap.BuiltAt.Equal(loaded.BuiltAt))
}

func TestLoadSnapshot_Absent(t *testing.T) {
	assert.Nil(t, LoadSnapshot(filepath.Join(t.TempDir(), "nope.json"), "cfgv1", nil))
}

func TestLoadSnapshot_CorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relationships.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	assert.Nil(t, LoadSnapshot(path, "cfgv1", nil))
}

func TestLoadSnapshot_ChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relationships.json")

	snap := NewSnapshot(sampleResult(), "cfgv1")
	require.NoError(t, snap.Persist(path))

	// Tamper with an edge without updating the checksum.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), "persona:writer", "persona:forged", 1)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o644))

	assert.Nil(t, LoadSnapshot(path, "cfgv1", nil))
}

func TestLoadSnapshot_ConfigVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relationships.json")

	snap := NewSnapshot(sampleResult(), "cfgv1")
	require.NoError(t, snap.Persist(path))

	assert.Nil(t, LoadSnapshot(path, "cfgv2", nil))
}
