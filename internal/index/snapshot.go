// Package index orchestrates relationship builds: it caches the resulting
// snapshot with a TTL, persists it to disk under the cross-process lock, and
// serves relationship queries.
package index

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/renameio"

	"github.com/elemdex/elemdex/internal/relationship"
)

// Snapshot is the immutable artifact of one relationship build. It is
// replaced wholesale on rebuild; edges are never mutated in place.
type Snapshot struct {
	// BuiltAt is when the build completed.
	BuiltAt time.Time `json:"built_at"`

	// ElementCount is the population size at build time.
	ElementCount int `json:"element_count"`

	// ConfigVersion identifies the config the snapshot was built under.
	// A snapshot built under a different config version is stale.
	ConfigVersion string `json:"config_version"`

	// Checksum guards the edge list against on-disk corruption.
	Checksum string `json:"checksum"`

	// Edges is the edge set ordered by (From, To).
	Edges []relationship.Edge `json:"edges"`
}

// NewSnapshot wraps a build result into a snapshot under the given config
// version.
func NewSnapshot(result *relationship.Result, configVersion string) *Snapshot {
	s := &Snapshot{
		BuiltAt:       time.Now(),
		ElementCount:  result.ElementCount,
		ConfigVersion: configVersion,
		Edges:         result.Edges,
	}
	s.Checksum = s.computeChecksum()
	return s
}

// Fresh reports whether the snapshot is still within its TTL.
func (s *Snapshot) Fresh(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.BuiltAt) <= ttl
}

// Related returns every edge touching the given element id.
func (s *Snapshot) Related(elementID string) []relationship.Edge {
	var edges []relationship.Edge
	for _, e := range s.Edges {
		if e.From == elementID || e.To == elementID {
			edges = append(edges, e)
		}
	}
	return edges
}

// computeChecksum hashes the edge list content.
func (s *Snapshot) computeChecksum() string {
	h := sha256.New()
	for _, e := range s.Edges {
		fmt.Fprintf(h, "%s|%s|%g|%g|%g|%s\n",
			e.From, e.To, e.Jaccard, e.EntropyFrom, e.EntropyTo, e.Band)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Persist writes the snapshot to path atomically (write-new, rename-over),
// so a reader never observes a half-written snapshot even without read-side
// locking. The caller holds the cross-process lock.
func (s *Snapshot) Persist(path string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a persisted snapshot, returning nil (no error) when the
// file is absent, corrupt, checksum-mismatched, or built under a different
// config version. A bad on-disk snapshot is never fatal; the caller rebuilds.
func LoadSnapshot(path, configVersion string, logger *slog.Logger) *Snapshot {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read snapshot", "path", path, "error", err)
		}
		return nil
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		logger.Warn("ignoring corrupt snapshot", "path", path, "error", err)
		return nil
	}

	if s.Checksum != s.computeChecksum() {
		logger.Warn("ignoring snapshot with checksum mismatch", "path", path)
		return nil
	}

	if s.ConfigVersion != configVersion {
		logger.Info("ignoring snapshot built under different config",
			"snapshot_config", s.ConfigVersion,
			"current_config", configVersion)
		return nil
	}

	return &s
}
