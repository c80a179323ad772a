package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	elemerrors "github.com/elemdex/elemdex/internal/errors"
	"github.com/elemdex/elemdex/internal/relationship"
)

// GetRelatedInput defines the input schema for the get_related tool.
type GetRelatedInput struct {
	ElementID string `json:"element_id" jsonschema:"composite element id in type:name form, e.g. persona:creative-writer"`
	Band      string `json:"band,omitempty" jsonschema:"filter edges by band: same-domain, common-word-overlap, distinct-domains, unclassified"`
}

// RelatedEdgeOutput is one relationship edge in tool output.
type RelatedEdgeOutput struct {
	From        string  `json:"from" jsonschema:"element id of the lexicographically smaller endpoint"`
	To          string  `json:"to" jsonschema:"element id of the other endpoint"`
	Jaccard     float64 `json:"jaccard" jsonschema:"lexical overlap score between 0 and 1"`
	EntropyFrom float64 `json:"entropy_from" jsonschema:"Shannon entropy of the from element's vocabulary"`
	EntropyTo   float64 `json:"entropy_to" jsonschema:"Shannon entropy of the to element's vocabulary"`
	Band        string  `json:"band" jsonschema:"qualitative relationship classification"`
}

// GetRelatedOutput defines the output schema for the get_related tool.
type GetRelatedOutput struct {
	ElementID string              `json:"element_id" jsonschema:"the queried element id"`
	Edges     []RelatedEdgeOutput `json:"edges" jsonschema:"relationship edges touching the element"`
	Stale     bool                `json:"stale" jsonschema:"true when results come from a stale cached snapshot"`
}

// RebuildInput defines the input schema for the rebuild_index tool.
type RebuildInput struct{}

// RebuildOutput defines the output schema for the rebuild_index tool.
type RebuildOutput struct {
	ElementCount int    `json:"element_count" jsonschema:"population size at build time"`
	EdgeCount    int    `json:"edge_count" jsonschema:"number of relationship edges discovered"`
	BuiltAt      string `json:"built_at" jsonschema:"build completion time, RFC3339"`
}

// IndexStatusInput defines the input schema for the index_status tool.
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	HasSnapshot   bool   `json:"has_snapshot" jsonschema:"whether a snapshot is loaded"`
	Fresh         bool   `json:"fresh" jsonschema:"whether the snapshot is within its TTL"`
	BuiltAt       string `json:"built_at,omitempty" jsonschema:"snapshot build time, RFC3339"`
	ElementCount  int    `json:"element_count" jsonschema:"population size at build time"`
	EdgeCount     int    `json:"edge_count" jsonschema:"number of relationship edges"`
	ConfigVersion string `json:"config_version" jsonschema:"hash of the active configuration"`
	Rebuilds      int    `json:"rebuilds" jsonschema:"rebuild count for this process"`
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_related",
		Description: "Find elements semantically related to a given element. Returns relationship edges with lexical-overlap scores, entropy values, and a qualitative band. Answers come from a cached index; stale results are flagged rather than failing.",
	}, s.mcpGetRelatedHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "rebuild_index",
		Description: "Force an immediate rebuild of the relationship index, regardless of cache freshness. Use after bulk portfolio changes.",
	}, s.mcpRebuildHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Report relationship-index diagnostics: snapshot freshness, population size, edge count, and the active config version.",
	}, s.mcpIndexStatusHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", 3))
}

// mcpGetRelatedHandler serves the get_related tool.
func (s *Server) mcpGetRelatedHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetRelatedInput) (
	*mcp.CallToolResult,
	GetRelatedOutput,
	error,
) {
	if input.ElementID == "" {
		return nil, GetRelatedOutput{}, elemerrors.ValidationError("element_id parameter is required", nil)
	}

	manager := s.resolver.Manager()
	edges, err := manager.GetRelated(ctx, input.ElementID)
	if err != nil {
		return nil, GetRelatedOutput{}, err
	}

	out := GetRelatedOutput{
		ElementID: input.ElementID,
		Stale:     !manager.Status().Fresh,
	}
	for _, e := range edges {
		if input.Band != "" && string(e.Band) != input.Band {
			continue
		}
		out.Edges = append(out.Edges, edgeOutput(e))
	}
	return nil, out, nil
}

// mcpRebuildHandler serves the rebuild_index tool.
func (s *Server) mcpRebuildHandler(ctx context.Context, _ *mcp.CallToolRequest, _ RebuildInput) (
	*mcp.CallToolResult,
	RebuildOutput,
	error,
) {
	start := time.Now()
	snap, err := s.resolver.Manager().Rebuild(ctx)
	if err != nil {
		return nil, RebuildOutput{}, err
	}

	s.mu.RLock()
	metrics := s.metrics
	s.mu.RUnlock()
	if metrics != nil {
		metrics.RecordRebuildDuration(time.Since(start))
	}

	return nil, RebuildOutput{
		ElementCount: snap.ElementCount,
		EdgeCount:    len(snap.Edges),
		BuiltAt:      snap.BuiltAt.Format(time.RFC3339),
	}, nil
}

// mcpIndexStatusHandler serves the index_status tool.
func (s *Server) mcpIndexStatusHandler(_ context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	IndexStatusOutput,
	error,
) {
	st := s.resolver.Manager().Status()

	out := IndexStatusOutput{
		HasSnapshot:   st.HasSnapshot,
		Fresh:         st.Fresh,
		ElementCount:  st.ElementCount,
		EdgeCount:     st.EdgeCount,
		ConfigVersion: st.ConfigVersion,
		Rebuilds:      st.Rebuilds,
	}
	if st.HasSnapshot {
		out.BuiltAt = st.BuiltAt.Format(time.RFC3339)
	}
	return nil, out, nil
}

func edgeOutput(e relationship.Edge) RelatedEdgeOutput {
	return RelatedEdgeOutput{
		From:        e.From,
		To:          e.To,
		Jaccard:     e.Jaccard,
		EntropyFrom: e.EntropyFrom,
		EntropyTo:   e.EntropyTo,
		Band:        string(e.Band),
	}
}
