package trigger

import (
	"context"
	"sort"

	"github.com/elemdex/elemdex/internal/nlp"
)

// DefaultMaxDepth bounds relationship-graph traversal. Every traversal also
// carries a visited set; the combination makes unbounded recursion impossible
// regardless of graph shape.
const DefaultMaxDepth = 3

// Expander walks the relationship graph outward from an element, collecting
// its semantic neighborhood. Used by trigger expansion to surface elements
// related to the one that matched a verb trigger.
type Expander struct {
	resolver *Resolver
	maxDepth int
}

// NewExpander creates an Expander. A maxDepth of 0 falls back to
// DefaultMaxDepth.
func NewExpander(resolver *Resolver, maxDepth int) *Expander {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Expander{resolver: resolver, maxDepth: maxDepth}
}

// Expand returns the ids of elements reachable from elementID within the
// depth bound, nearest first, following only same-domain edges. The starting
// element is not included.
func (e *Expander) Expand(ctx context.Context, elementID string) ([]string, error) {
	manager := e.resolver.Manager()

	visited := map[string]struct{}{elementID: {}}
	var result []string

	frontier := []string{elementID}
	for depth := 0; depth < e.maxDepth && len(frontier) > 0; depth++ {
		var next []string

		for _, id := range frontier {
			edges, err := manager.GetRelated(ctx, id)
			if err != nil {
				return nil, err
			}

			var neighbors []string
			for _, edge := range edges {
				if edge.Band != nlp.BandSameDomain {
					continue
				}
				other := edge.From
				if other == id {
					other = edge.To
				}
				if _, seen := visited[other]; seen {
					continue
				}
				visited[other] = struct{}{}
				neighbors = append(neighbors, other)
			}

			sort.Strings(neighbors)
			result = append(result, neighbors...)
			next = append(next, neighbors...)
		}

		frontier = next
	}

	return result, nil
}
