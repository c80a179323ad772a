package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/elemdex/elemdex/internal/config"
	"github.com/elemdex/elemdex/internal/errors"
	"github.com/elemdex/elemdex/internal/lockfile"
	"github.com/elemdex/elemdex/internal/relationship"
	"github.com/elemdex/elemdex/internal/store"
	"github.com/elemdex/elemdex/internal/telemetry"
)

const (
	// SnapshotFileName is the persisted snapshot file under the state dir.
	SnapshotFileName = "relationships.json"

	// LockFileName is the lock marker co-located with the snapshot.
	LockFileName = "relationships.lock"

	// queryCacheSize bounds the per-element query cache.
	queryCacheSize = 1024
)

// Manager is the public query surface of the relationship index. It owns the
// in-memory TTL cache, triggers rebuilds through the Builder, and persists
// snapshots to disk under the cross-process lock.
//
// In-memory state is per-process; the on-disk snapshot is the only shared
// mutable resource, and FileLock serializes writes to it.
type Manager struct {
	cfg           *config.Config
	configVersion string
	builder       *relationship.Builder
	locker        *lockfile.Locker
	snapshotPath  string
	logger        *slog.Logger

	group      singleflight.Group
	queryCache *expirable.LRU[string, []relationship.Edge]

	mu          sync.RWMutex
	snapshot    *Snapshot
	invalidated bool
	diskChecked bool

	// rebuilds is a per-instance diagnostic counter, deliberately not a
	// process-wide global.
	rebuilds int

	metrics *telemetry.Metrics

	persistWG sync.WaitGroup
}

// NewManager creates a Manager over the given store and builder, persisting
// state under stateDir. It registers with the store for change notifications
// so population changes invalidate the snapshot.
func NewManager(cfg *config.Config, st store.ElementStore, builder *relationship.Builder, stateDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	ttl := time.Duration(cfg.Index.TTLMinutes) * time.Minute
	m := &Manager{
		cfg:           cfg,
		configVersion: cfg.Version(),
		builder:       builder,
		locker:        lockfile.New(filepath.Join(stateDir, LockFileName), logger),
		snapshotPath:  filepath.Join(stateDir, SnapshotFileName),
		logger:        logger,
		queryCache:    expirable.NewLRU[string, []relationship.Edge](queryCacheSize, nil, ttl),
	}

	st.Subscribe(m.Invalidate)
	return m
}

// SetMetrics attaches query metrics collection. Optional.
func (m *Manager) SetMetrics(metrics *telemetry.Metrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = metrics
}

// GetRelated returns every relationship edge touching the given element id.
// It serves from the current snapshot while it is fresh, rebuilding
// otherwise. Callers always get an answer when any snapshot exists: if a
// rebuild fails, the last good snapshot is served stale with a warning.
func (m *Manager) GetRelated(ctx context.Context, elementID string) ([]relationship.Edge, error) {
	if _, _, err := store.ParseID(elementID); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidElementID, err)
	}

	if edges, ok := m.queryCache.Get(elementID); ok && m.usable(m.current()) {
		m.recordQuery(elementID, true)
		return edges, nil
	}

	snap, err := m.ensureSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	edges := snap.Related(elementID)
	m.queryCache.Add(elementID, edges)
	m.recordQuery(elementID, false)
	return edges, nil
}

// Rebuild forces an immediate rebuild regardless of TTL and returns the new
// snapshot.
func (m *Manager) Rebuild(ctx context.Context) (*Snapshot, error) {
	m.Invalidate()
	return m.ensureSnapshot(ctx)
}

// Invalidate forces the next query to rebuild, regardless of TTL. The
// element store calls this when it detects a create, edit, or delete.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.invalidated = true
	m.mu.Unlock()
	m.queryCache.Purge()
}

// Status describes the manager's current snapshot for diagnostics.
type Status struct {
	HasSnapshot   bool      `json:"has_snapshot"`
	Fresh         bool      `json:"fresh"`
	BuiltAt       time.Time `json:"built_at,omitzero"`
	ElementCount  int       `json:"element_count"`
	EdgeCount     int       `json:"edge_count"`
	ConfigVersion string    `json:"config_version"`
	Rebuilds      int       `json:"rebuilds"`
}

// Status returns current snapshot diagnostics. A fresh process consults the
// persisted snapshot first, so `status` right after a rebuild in another
// process reports what is actually on disk.
func (m *Manager) Status() Status {
	if m.current() == nil {
		if snap := m.loadFromDisk(); snap != nil {
			m.adopt(snap)
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{
		ConfigVersion: m.configVersion,
		Rebuilds:      m.rebuilds,
	}
	if m.snapshot != nil {
		st.HasSnapshot = true
		st.Fresh = !m.invalidated && m.snapshot.Fresh(m.ttl(), time.Now())
		st.BuiltAt = m.snapshot.BuiltAt
		st.ElementCount = m.snapshot.ElementCount
		st.EdgeCount = len(m.snapshot.Edges)
	}
	return st
}

// Wait blocks until any in-flight background persist has finished.
// Intended for shutdown and tests.
func (m *Manager) Wait() {
	m.persistWG.Wait()
}

// ensureSnapshot returns a usable snapshot, rebuilding if necessary.
// Concurrent misses share one rebuild via singleflight.
func (m *Manager) ensureSnapshot(ctx context.Context) (*Snapshot, error) {
	if snap := m.current(); m.usable(snap) {
		return snap, nil
	}

	v, err, _ := m.group.Do("rebuild", func() (interface{}, error) {
		// Re-check: another caller may have rebuilt while we queued.
		if snap := m.current(); m.usable(snap) {
			return snap, nil
		}

		// First miss of the process: a snapshot persisted by an earlier
		// run (or another process) may still be fresh.
		if snap := m.loadFromDisk(); m.usable(snap) {
			m.setSnapshot(snap, false)
			return snap, nil
		}

		result, err := m.builder.Build(ctx)
		if err != nil {
			return nil, err
		}

		snap := NewSnapshot(result, m.configVersion)
		m.setSnapshot(snap, true)
		m.persistAsync(snap)
		return snap, nil
	})

	if err != nil {
		// Serve the last good snapshot, even stale, rather than failing
		// the query.
		if snap := m.current(); snap != nil {
			m.logger.Warn("rebuild failed, serving stale snapshot",
				"built_at", snap.BuiltAt,
				"error", err)
			return snap, nil
		}
		return nil, errors.New(errors.ErrCodeBuildFailed, "relationship build failed", err)
	}

	return v.(*Snapshot), nil
}

// current returns the in-memory snapshot, or nil.
func (m *Manager) current() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// usable reports whether a snapshot can serve queries right now.
func (m *Manager) usable(snap *Snapshot) bool {
	if snap == nil {
		return false
	}
	m.mu.RLock()
	invalidated := m.invalidated
	m.mu.RUnlock()
	return !invalidated && snap.Fresh(m.ttl(), time.Now())
}

// setSnapshot installs a new snapshot. BuiltAt is monotonically
// non-decreasing within one process: an older snapshot never replaces a
// newer one.
func (m *Manager) setSnapshot(snap *Snapshot, rebuilt bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snapshot != nil && snap.BuiltAt.Before(m.snapshot.BuiltAt) {
		return
	}
	m.snapshot = snap
	m.invalidated = false
	if rebuilt {
		m.rebuilds++
		if m.metrics != nil {
			m.metrics.RecordRebuild(snap.ElementCount, len(snap.Edges))
		}
	}
	m.queryCache.Purge()
}

// adopt installs a restored snapshot for reporting without disturbing the
// invalidation state: a pending invalidation must still force the next
// query to rebuild.
func (m *Manager) adopt(snap *Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		m.snapshot = snap
	}
}

// loadFromDisk attempts to restore a persisted snapshot, once per process.
func (m *Manager) loadFromDisk() *Snapshot {
	m.mu.Lock()
	if m.diskChecked {
		m.mu.Unlock()
		return nil
	}
	m.diskChecked = true
	m.mu.Unlock()

	return LoadSnapshot(m.snapshotPath, m.configVersion, m.logger)
}

// persistAsync schedules a lock-protected disk persist without blocking the
// query caller. A lock timeout is a warning, not an error: the in-memory
// snapshot still serves queries, and the next rebuild will retry the persist.
func (m *Manager) persistAsync(snap *Snapshot) {
	m.persistWG.Add(1)
	go func() {
		defer m.persistWG.Done()

		timeout := time.Duration(m.cfg.Index.LockTimeoutMs) * time.Millisecond
		handle, err := m.locker.Acquire(timeout)
		if err != nil {
			m.logger.Warn("skipping snapshot persist",
				"path", m.snapshotPath,
				"error", err)
			return
		}
		defer func() {
			if err := m.locker.Release(handle); err != nil {
				m.logger.Warn("failed to release snapshot lock", "error", err)
			}
		}()

		if err := snap.Persist(m.snapshotPath); err != nil {
			m.logger.Warn("failed to persist snapshot",
				"path", m.snapshotPath,
				"error", err)
			return
		}

		m.logger.Debug("snapshot persisted",
			"path", m.snapshotPath,
			"edges", len(snap.Edges))
	}()
}

func (m *Manager) ttl() time.Duration {
	return time.Duration(m.cfg.Index.TTLMinutes) * time.Minute
}

func (m *Manager) recordQuery(elementID string, cacheHit bool) {
	m.mu.RLock()
	metrics := m.metrics
	m.mu.RUnlock()
	if metrics != nil {
		metrics.RecordQuery(elementID, cacheHit)
	}
}
