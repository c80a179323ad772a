// Package telemetry provides query and rebuild metrics for the relationship
// index. All telemetry data is stored locally - no external reporting.
package telemetry

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// topElementsCapacity bounds the most-queried-element tracking.
const topElementsCapacity = 256

// Metrics collects relationship-index query and rebuild statistics for one
// process. Safe for concurrent use.
type Metrics struct {
	mu sync.RWMutex

	queries    int64
	cacheHits  int64
	rebuilds   int64
	lastEdges  int
	lastCounts int

	rebuildDurations []time.Duration

	topElements *lru.Cache[string, int64]
}

// NewMetrics creates an empty metrics collector.
func NewMetrics() *Metrics {
	topElements, _ := lru.New[string, int64](topElementsCapacity)
	return &Metrics{topElements: topElements}
}

// RecordQuery records one getRelated call and whether it was a cache hit.
func (m *Metrics) RecordQuery(elementID string, cacheHit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries++
	if cacheHit {
		m.cacheHits++
	}

	count, _ := m.topElements.Get(elementID)
	m.topElements.Add(elementID, count+1)
}

// RecordRebuild records one completed rebuild.
func (m *Metrics) RecordRebuild(elementCount, edgeCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rebuilds++
	m.lastCounts = elementCount
	m.lastEdges = edgeCount
}

// RecordRebuildDuration records how long a rebuild took.
func (m *Metrics) RecordRebuildDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebuildDurations = append(m.rebuildDurations, d)
}

// ElementCount is one entry in the top-queried report.
type ElementCount struct {
	ElementID string `json:"element_id"`
	Count     int64  `json:"count"`
}

// Summary is a point-in-time metrics report.
type Summary struct {
	Queries          int64          `json:"queries"`
	CacheHits        int64          `json:"cache_hits"`
	CacheHitRate     float64        `json:"cache_hit_rate"`
	Rebuilds         int64          `json:"rebuilds"`
	LastElementCount int            `json:"last_element_count"`
	LastEdgeCount    int            `json:"last_edge_count"`
	AvgRebuild       time.Duration  `json:"avg_rebuild_ns"`
	TopElements      []ElementCount `json:"top_elements"`
}

// Summarize returns a snapshot of the collected metrics.
func (m *Metrics) Summarize(topN int) Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Summary{
		Queries:          m.queries,
		CacheHits:        m.cacheHits,
		Rebuilds:         m.rebuilds,
		LastElementCount: m.lastCounts,
		LastEdgeCount:    m.lastEdges,
	}
	if m.queries > 0 {
		s.CacheHitRate = float64(m.cacheHits) / float64(m.queries)
	}
	if len(m.rebuildDurations) > 0 {
		var total time.Duration
		for _, d := range m.rebuildDurations {
			total += d
		}
		s.AvgRebuild = total / time.Duration(len(m.rebuildDurations))
	}

	for _, id := range m.topElements.Keys() {
		count, ok := m.topElements.Peek(id)
		if !ok {
			continue
		}
		s.TopElements = append(s.TopElements, ElementCount{ElementID: id, Count: count})
	}
	// Keys returns least-recent first; surface the most-queried tail.
	if topN > 0 && len(s.TopElements) > topN {
		s.TopElements = s.TopElements[len(s.TopElements)-topN:]
	}

	return s
}
