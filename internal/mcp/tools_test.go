package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elemdex/elemdex/internal/config"
	"github.com/elemdex/elemdex/internal/index"
	"github.com/elemdex/elemdex/internal/relationship"
	"github.com/elemdex/elemdex/internal/store"
	"github.com/elemdex/elemdex/internal/telemetry"
	"github.com/elemdex/elemdex/internal/trigger"
)

type memStore struct {
	refs     []store.ElementRef
	contents map[string]string
}

func newMemStore() *memStore {
	return &memStore{contents: make(map[string]string)}
}

func (s *memStore) add(typ store.ElementType, name, content string) {
	id := store.MakeID(typ, name)
	s.refs = append(s.refs, store.ElementRef{ID: id, Type: typ, Name: name})
	s.contents[id] = content
}

func (s *memStore) ListElements(_ context.Context) ([]store.ElementRef, error) {
	return s.refs, nil
}

func (s *memStore) ReadContent(_ context.Context, id string) (string, error) {
	return s.contents[id], nil
}

func (s *memStore) ReadContents(_ context.Context, refs []store.ElementRef) (map[string]string, error) {
	contents := make(map[string]string, len(refs))
	for _, ref := range refs {
		contents[ref.ID] = s.contents[ref.ID]
	}
	return contents, nil
}

func (s *memStore) Subscribe(func()) {}

func testServer(t *testing.T) (*Server, *index.Manager) {
	t.Helper()

	content := "kubernetes deployment rollout canary istio envoy sidecar mesh " +
		"telemetry tracing observability grafana prometheus alertmanager " +
		"ingress gateway certificate rotation webhook admission"

	st := newMemStore()
	st.add(store.TypePersona, "sre", content)
	st.add(store.TypeSkill, "deployments", content)
	st.add(store.TypeMemory, "painting",
		"watercolor brush pigment gouache canvas easel palette varnish gesso sketch")

	cfg := config.DefaultConfig()
	builder := relationship.NewBuilder(cfg, st, nil, relationship.WithSeed(1))
	manager := index.NewManager(cfg, st, builder, t.TempDir(), nil)
	t.Cleanup(manager.Wait)

	resolver := trigger.NewResolver(func() *index.Manager { return manager })
	server, err := NewServer(resolver, cfg, nil)
	require.NoError(t, err)
	return server, manager
}

// =============================================================================
// Server Construction Tests
// =============================================================================

func TestNewServer_RequiresResolver(t *testing.T) {
	_, err := NewServer(nil, config.DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestNewServer(t *testing.T) {
	s, _ := testServer(t)
	assert.NotNil(t, s.MCPServer())
}

// =============================================================================
// get_related Tests
// =============================================================================

func TestGetRelatedHandler(t *testing.T) {
	s, _ := testServer(t)

	_, out, err := s.mcpGetRelatedHandler(context.Background(), nil, GetRelatedInput{
		ElementID: "persona:sre",
	})
	require.NoError(t, err)

	assert.Equal(t, "persona:sre", out.ElementID)
	require.Len(t, out.Edges, 1)
	assert.Equal(t, "persona:sre", out.Edges[0].From)
	assert.Equal(t, "skill:deployments", out.Edges[0].To)
	assert.Equal(t, 1.0, out.Edges[0].Jaccard)
	assert.Equal(t, "same-domain", out.Edges[0].Band)
	assert.False(t, out.Stale)
}

func TestGetRelatedHandler_MissingElementID(t *testing.T) {
	s, _ := testServer(t)

	_, _, err := s.mcpGetRelatedHandler(context.Background(), nil, GetRelatedInput{})
	assert.Error(t, err)
}

func TestGetRelatedHandler_InvalidElementID(t *testing.T) {
	s, _ := testServer(t)

	_, _, err := s.mcpGetRelatedHandler(context.Background(), nil, GetRelatedInput{
		ElementID: "not-a-composite-id",
	})
	assert.Error(t, err)
}

func TestGetRelatedHandler_BandFilter(t *testing.T) {
	s, _ := testServer(t)

	_, out, err := s.mcpGetRelatedHandler(context.Background(), nil, GetRelatedInput{
		ElementID: "persona:sre",
		Band:      "distinct-domains",
	})
	require.NoError(t, err)
	assert.Empty(t, out.Edges, "the only edge is same-domain")

	_, out, err = s.mcpGetRelatedHandler(context.Background(), nil, GetRelatedInput{
		ElementID: "persona:sre",
		Band:      "same-domain",
	})
	require.NoError(t, err)
	assert.Len(t, out.Edges, 1)
}

// =============================================================================
// rebuild_index Tests
// =============================================================================

func TestRebuildHandler(t *testing.T) {
	s, manager := testServer(t)

	metrics := telemetry.NewMetrics()
	s.SetMetrics(metrics)

	_, out, err := s.mcpRebuildHandler(context.Background(), nil, RebuildInput{})
	require.NoError(t, err)

	assert.Equal(t, 3, out.ElementCount)
	assert.Equal(t, 1, out.EdgeCount)

	builtAt, err := time.Parse(time.RFC3339, out.BuiltAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), builtAt, time.Minute)

	assert.Equal(t, 1, manager.Status().Rebuilds)
	assert.NotZero(t, metrics.Summarize(1).AvgRebuild)
}

// =============================================================================
// index_status Tests
// =============================================================================

func TestIndexStatusHandler(t *testing.T) {
	s, _ := testServer(t)

	_, before, err := s.mcpIndexStatusHandler(context.Background(), nil, IndexStatusInput{})
	require.NoError(t, err)
	assert.False(t, before.HasSnapshot)
	assert.Empty(t, before.BuiltAt)
	assert.NotEmpty(t, before.ConfigVersion)

	_, _, err = s.mcpRebuildHandler(context.Background(), nil, RebuildInput{})
	require.NoError(t, err)

	_, after, err := s.mcpIndexStatusHandler(context.Background(), nil, IndexStatusInput{})
	require.NoError(t, err)
	assert.True(t, after.HasSnapshot)
	assert.True(t, after.Fresh)
	assert.Equal(t, 3, after.ElementCount)
	assert.Equal(t, 1, after.EdgeCount)
	assert.Equal(t, 1, after.Rebuilds)
	assert.NotEmpty(t, after.BuiltAt)
}
