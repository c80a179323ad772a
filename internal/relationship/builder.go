// Package relationship discovers which elements are semantically related to
// which others. It produces a bounded-cost edge set for an arbitrary-size
// element population: an exact pairwise matrix for small populations, and a
// two-pass sampled approximation (keyword clusters, then proportional
// cross-type sampling) once the population outgrows the full-matrix limit.
package relationship

import (
	"context"
	"log/slog"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/elemdex/elemdex/internal/config"
	"github.com/elemdex/elemdex/internal/nlp"
	"github.com/elemdex/elemdex/internal/store"
)

// Edge is one undirected relationship between two elements.
// From sorts lexicographically before To, so an unordered pair has exactly
// one canonical representation and Jaccard is symmetric by construction.
type Edge struct {
	From        string   `json:"from"`
	To          string   `json:"to"`
	Jaccard     float64  `json:"jaccard"`
	EntropyFrom float64  `json:"entropy_from"`
	EntropyTo   float64  `json:"entropy_to"`
	Band        nlp.Band `json:"band"`
}

// Result is the outcome of one relationship build.
type Result struct {
	// Edges is the deduplicated edge set, ordered by (From, To).
	Edges []Edge

	// ElementCount is the population size at build time.
	ElementCount int

	// Comparisons is how many pairwise comparisons were performed.
	Comparisons int

	// Skipped counts elements whose content could not be read.
	Skipped int

	// Sampled is false when the exact full matrix was computed.
	Sampled bool
}

// Share of the comparison budget consumed by each sampled pass.
const (
	clusterPassShare   = 0.6
	crossTypePassShare = 0.4
)

// yieldBatchSize is how many comparisons run between cooperative yield
// points, so one large rebuild cannot monopolize the scheduler.
const yieldBatchSize = 256

// keywordsPerElement is how many top-frequency tokens anchor an element
// during clustering.
const keywordsPerElement = 8

// Builder computes relationship edge sets from the current element population.
type Builder struct {
	cfg    *config.Config
	store  store.ElementStore
	logger *slog.Logger
	seed   int64
}

// Option configures a Builder.
type Option func(*Builder)

// WithSeed fixes the sampling seed for reproducible builds.
func WithSeed(seed int64) Option {
	return func(b *Builder) { b.seed = seed }
}

// NewBuilder creates a Builder over the given element store.
func NewBuilder(cfg *config.Config, st store.ElementStore, logger *slog.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Builder{
		cfg:    cfg,
		store:  st,
		logger: logger,
		seed:   time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// doc is one element's tokenized view, computed once per build.
type doc struct {
	ref      store.ElementRef
	set      map[string]struct{}
	entropy  float64
	keywords []string
}

// Build loads the current population, picks a strategy, and computes the
// edge set. Unreadable elements are skipped and logged; a single bad element
// never aborts the build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	refs, err := b.store.ListElements(ctx)
	if err != nil {
		return nil, err
	}

	docs, skipped, err := b.tokenize(ctx, refs)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ElementCount: len(docs),
		Skipped:      skipped,
	}

	run := newBuildRun(b.cfg, docs, b.seed)
	if len(docs) <= b.cfg.Performance.MaxElementsForFullMatrix {
		run.fullMatrix(ctx)
	} else {
		result.Sampled = true
		run.sampled(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Edges = run.edgeList()
	result.Comparisons = run.comparisons

	b.logger.Info("relationship build complete",
		"elements", result.ElementCount,
		"edges", len(result.Edges),
		"comparisons", result.Comparisons,
		"skipped", result.Skipped,
		"sampled", result.Sampled)

	return result, nil
}

// tokenize bulk-loads and tokenizes the population. Elements the store
// could not read are simply absent from the loaded contents; they are
// counted as skipped and left out of the build. Iterating refs (not the
// map) keeps the doc order deterministic.
func (b *Builder) tokenize(ctx context.Context, refs []store.ElementRef) ([]doc, int, error) {
	contents, err := b.store.ReadContents(ctx, refs)
	if err != nil {
		return nil, 0, err
	}

	docs := make([]doc, 0, len(contents))
	for _, ref := range refs {
		text, ok := contents[ref.ID]
		if !ok {
			continue
		}

		tokens := nlp.Tokenize(text)
		counts := nlp.TokenCounts(tokens)
		docs = append(docs, doc{
			ref:      ref,
			set:      nlp.TokenSet(tokens),
			entropy:  nlp.Entropy(counts),
			keywords: nlp.Keywords(counts, keywordsPerElement),
		})
	}

	return docs, len(refs) - len(docs), nil
}

// buildRun holds the per-build working state: the tokenized population, the
// deduplicated edge map, and the comparison counter.
type buildRun struct {
	cfg         *config.Config
	docs        []doc
	rng         *rand.Rand
	edges       map[[2]string]Edge
	compared    map[[2]string]struct{}
	comparisons int
	sinceYield  int
}

func newBuildRun(cfg *config.Config, docs []doc, seed int64) *buildRun {
	return &buildRun{
		cfg:      cfg,
		docs:     docs,
		rng:      rand.New(rand.NewSource(seed)),
		edges:    make(map[[2]string]Edge),
		compared: make(map[[2]string]struct{}),
	}
}

// fullMatrix computes the exact n(n-1)/2 comparison matrix.
func (r *buildRun) fullMatrix(ctx context.Context) {
	for i := 0; i < len(r.docs); i++ {
		for j := i + 1; j < len(r.docs); j++ {
			if ctx.Err() != nil {
				return
			}
			r.compare(&r.docs[i], &r.docs[j])
		}
	}
}

// sampled runs the two-pass bounded strategy within the configured budget.
func (r *buildRun) sampled(ctx context.Context) {
	budget := r.cfg.Performance.MaxSimilarityComparisons
	clusterBudget := int(float64(budget) * clusterPassShare)

	r.clusterPass(ctx, clusterBudget)

	// Whatever the cluster pass left unspent rolls into the cross-type pass.
	r.crossTypePass(ctx, budget-r.comparisons)
}

// compare scores one unordered pair, recording an edge when the Jaccard
// similarity clears the configured threshold. Duplicate pairs are ignored.
func (r *buildRun) compare(a, b *doc) bool {
	key := pairKey(a.ref.ID, b.ref.ID)
	if _, seen := r.compared[key]; seen {
		return false
	}
	r.compared[key] = struct{}{}
	r.comparisons++
	r.maybeYield()

	jaccard := nlp.Jaccard(a.set, b.set)
	if jaccard < r.cfg.Performance.SimilarityThreshold {
		return true
	}

	from, to := a, b
	if from.ref.ID > to.ref.ID {
		from, to = to, from
	}

	r.edges[key] = Edge{
		From:        from.ref.ID,
		To:          to.ref.ID,
		Jaccard:     jaccard,
		EntropyFrom: from.entropy,
		EntropyTo:   to.entropy,
		Band:        nlp.Classify(jaccard, from.entropy, to.entropy, r.cfg),
	}
	return true
}

// maybeYield is the cooperative checkpoint between comparison batches.
func (r *buildRun) maybeYield() {
	r.sinceYield++
	if r.sinceYield >= yieldBatchSize {
		r.sinceYield = 0
		runtime.Gosched()
	}
}

// edgeList flattens the edge map into its canonical (From, To) ordering.
func (r *buildRun) edgeList() []Edge {
	edges := make([]Edge, 0, len(r.edges))
	for _, e := range r.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// pairKey canonicalizes an unordered element pair.
func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// FilterByBand returns the edges classified into the given band. The input
// slice is left untouched: callers often hold slices shared with the query
// cache, which must never be mutated in place.
func FilterByBand(edges []Edge, band nlp.Band) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.Band == band {
			out = append(out, e)
		}
	}
	return out
}
