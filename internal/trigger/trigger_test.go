package trigger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elemdex/elemdex/internal/config"
	"github.com/elemdex/elemdex/internal/index"
	"github.com/elemdex/elemdex/internal/relationship"
	"github.com/elemdex/elemdex/internal/store"
)

// chainStore builds a portfolio whose contents form a same-domain chain
// a - b - c - d - e: neighbors share most of their vocabulary, elements two
// or more steps apart share nothing.
type chainStore struct {
	refs     []store.ElementRef
	contents map[string]string
}

func newChainStore() *chainStore {
	s := &chainStore{contents: make(map[string]string)}

	// Each link shares a rich 15-word vocabulary with its successor only.
	links := []string{
		"kernel scheduler preemption runqueue affinity cgroup namespace syscall interrupt epoll futex numa hugepage swappiness watermark",
		"container image layer registry manifest runtime sandbox overlay snapshot rootfs entrypoint healthcheck restart replica quota",
		"pipeline artifact stage cache runner trigger matrix approval rollback promotion environment secret variable workflow gate",
		"dashboard panel query alert silence notification threshold burn-rate latency percentile histogram gauge counter summary retention",
		"incident paging escalation runbook postmortem timeline severity mitigation rollback communication stakeholder followup action review blameless",
	}

	names := []string{"a", "b", "c", "d", "e"}
	for i, name := range names {
		content := links[i]
		if i+1 < len(links) {
			// Overlap with the next link.
			content += " " + links[i+1]
		}
		id := store.MakeID(store.TypeSkill, name)
		s.refs = append(s.refs, store.ElementRef{ID: id, Type: store.TypeSkill, Name: name})
		s.contents[id] = content
	}
	return s
}

func (s *chainStore) ListElements(_ context.Context) ([]store.ElementRef, error) {
	return s.refs, nil
}

func (s *chainStore) ReadContent(_ context.Context, id string) (string, error) {
	return s.contents[id], nil
}

func (s *chainStore) ReadContents(_ context.Context, refs []store.ElementRef) (map[string]string, error) {
	contents := make(map[string]string, len(refs))
	for _, ref := range refs {
		contents[ref.ID] = s.contents[ref.ID]
	}
	return contents, nil
}

func (s *chainStore) Subscribe(func()) {}

func chainManager(t *testing.T) *index.Manager {
	t.Helper()
	// Adjacent chain links overlap at Jaccard 1/3; widen the bands so those
	// edges classify as same-domain.
	cfg := config.DefaultConfig()
	cfg.JaccardThresholds = config.JaccardThresholds{Low: 0.1, Moderate: 0.2, High: 0.3}
	cfg.EntropyBands = config.EntropyBands{Low: 1.0, Moderate: 2.0, High: 10.0}
	st := newChainStore()
	builder := relationship.NewBuilder(cfg, st, nil, relationship.WithSeed(1))
	return index.NewManager(cfg, st, builder, t.TempDir(), nil)
}

// =============================================================================
// Resolver Tests
// =============================================================================

func TestResolver_LazyResolution(t *testing.T) {
	var calls atomic.Int32
	manager := chainManager(t)
	defer manager.Wait()

	r := NewResolver(func() *index.Manager {
		calls.Add(1)
		return manager
	})

	// Construction never invokes the provider.
	assert.Equal(t, int32(0), calls.Load())

	assert.Same(t, manager, r.Manager())
	assert.Same(t, manager, r.Manager())
	assert.Equal(t, int32(1), calls.Load(), "provider must run at most once")
}

func TestResolver_ConcurrentResolution(t *testing.T) {
	var calls atomic.Int32
	manager := chainManager(t)
	defer manager.Wait()

	r := NewResolver(func() *index.Manager {
		calls.Add(1)
		return manager
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Same(t, manager, r.Manager())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

// =============================================================================
// Expander Tests
// =============================================================================

func TestExpander_DepthBoundsTraversal(t *testing.T) {
	manager := chainManager(t)
	defer manager.Wait()
	r := NewResolver(func() *index.Manager { return manager })

	tests := []struct {
		name     string
		maxDepth int
		want     []string
	}{
		{
			name:     "depth one reaches direct neighbors only",
			maxDepth: 1,
			want:     []string{"skill:b"},
		},
		{
			name:     "depth two reaches two hops",
			maxDepth: 2,
			want:     []string{"skill:b", "skill:c"},
		},
		{
			name:     "default depth reaches three hops",
			maxDepth: 0, // falls back to DefaultMaxDepth
			want:     []string{"skill:b", "skill:c", "skill:d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExpander(r, tt.maxDepth)
			got, err := e.Expand(context.Background(), "skill:a")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpander_ExcludesStartElement(t *testing.T) {
	manager := chainManager(t)
	defer manager.Wait()
	r := NewResolver(func() *index.Manager { return manager })

	got, err := NewExpander(r, 5).Expand(context.Background(), "skill:c")
	require.NoError(t, err)
	assert.NotContains(t, got, "skill:c")
}

func TestExpander_VisitedSetPreventsRevisits(t *testing.T) {
	manager := chainManager(t)
	defer manager.Wait()
	r := NewResolver(func() *index.Manager { return manager })

	// From the middle of the chain the walk goes both directions; no id may
	// appear twice even though b and d both connect back to c.
	got, err := NewExpander(r, 5).Expand(context.Background(), "skill:c")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, id := range got {
		assert.False(t, seen[id], "%s appears twice", id)
		seen[id] = true
	}
}

func TestExpander_InvalidElementID(t *testing.T) {
	manager := chainManager(t)
	defer manager.Wait()
	r := NewResolver(func() *index.Manager { return manager })

	_, err := NewExpander(r, 2).Expand(context.Background(), "not-an-id")
	assert.Error(t, err)
}
