package telemetry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Queries(t *testing.T) {
	m := NewMetrics()

	m.RecordQuery("persona:writer", false)
	m.RecordQuery("persona:writer", true)
	m.RecordQuery("skill:editing", true)

	s := m.Summarize(10)
	assert.Equal(t, int64(3), s.Queries)
	assert.Equal(t, int64(2), s.CacheHits)
	assert.InDelta(t, 2.0/3.0, s.CacheHitRate, 1e-9)
}

func TestMetrics_EmptySummary(t *testing.T) {
	s := NewMetrics().Summarize(10)

	assert.Zero(t, s.Queries)
	assert.Zero(t, s.CacheHitRate)
	assert.Zero(t, s.AvgRebuild)
	assert.Empty(t, s.TopElements)
}

func TestMetrics_Rebuilds(t *testing.T) {
	m := NewMetrics()

	m.RecordRebuild(100, 40)
	m.RecordRebuild(120, 55)
	m.RecordRebuildDuration(100 * time.Millisecond)
	m.RecordRebuildDuration(300 * time.Millisecond)

	s := m.Summarize(10)
	assert.Equal(t, int64(2), s.Rebuilds)
	assert.Equal(t, 120, s.LastElementCount)
	assert.Equal(t, 55, s.LastEdgeCount)
	assert.Equal(t, 200*time.Millisecond, s.AvgRebuild)
}

func TestMetrics_TopElements(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 5; i++ {
		m.RecordQuery("persona:writer", true)
	}
	m.RecordQuery("skill:editing", true)

	s := m.Summarize(1)
	assert.Len(t, s.TopElements, 1)
}

func TestMetrics_TopElementsCounts(t *testing.T) {
	m := NewMetrics()

	m.RecordQuery("persona:writer", false)
	m.RecordQuery("persona:writer", true)
	m.RecordQuery("skill:editing", false)

	s := m.Summarize(10)

	counts := make(map[string]int64)
	for _, e := range s.TopElements {
		counts[e.ElementID] = e.Count
	}
	assert.Equal(t, int64(2), counts["persona:writer"])
	assert.Equal(t, int64(1), counts["skill:editing"])
}

func TestMetrics_ConcurrentUse(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordQuery(fmt.Sprintf("memory:note-%d", n), j%2 == 0)
			}
			m.RecordRebuild(10, 5)
		}(i)
	}
	wg.Wait()

	s := m.Summarize(10)
	assert.Equal(t, int64(800), s.Queries)
	assert.Equal(t, int64(400), s.CacheHits)
	assert.Equal(t, int64(8), s.Rebuilds)
}
