package relationship

import (
	"context"
	"sort"

	"github.com/elemdex/elemdex/internal/store"
)

// crossTypePass samples comparisons across pairs of element types, allocating
// the pass budget in proportion to the product of the two populations. A
// portfolio of 1,000 memories and 10 personas still samples enough
// memory-persona comparisons to be meaningful, where a fixed-N-per-type
// scheme would starve the minority type.
func (r *buildRun) crossTypePass(ctx context.Context, budget int) {
	if budget <= 0 {
		return
	}

	byType := make(map[store.ElementType][]*doc)
	for i := range r.docs {
		d := &r.docs[i]
		byType[d.ref.Type] = append(byType[d.ref.Type], d)
	}

	pairs := typePairs(byType)
	if len(pairs) == 0 {
		return
	}

	// Normalize the p1·p2 weights so the whole pass budget is allocated.
	totalWeight := 0
	for _, p := range pairs {
		totalWeight += p.weight
	}
	if totalWeight == 0 {
		return
	}

	for _, p := range pairs {
		if ctx.Err() != nil {
			return
		}

		share := budget * p.weight / totalWeight
		target := r.pairTarget(share, p.weight)
		r.samplePair(ctx, byType[p.a], byType[p.b], target)
	}
}

// pairTarget bounds how many comparisons one type pair receives: at least the
// base sample size, scaled by the sample ratio of the possible pair space,
// never exceeding the pair's budget share.
func (r *buildRun) pairTarget(share, possible int) int {
	target := r.cfg.Sampling.BaseSampleSize
	if scaled := int(r.cfg.Sampling.SampleRatio * float64(possible)); scaled > target {
		target = scaled
	}
	if target > share {
		target = share
	}
	return target
}

type typePair struct {
	a, b   store.ElementType
	weight int
}

// typePairs enumerates unordered pairs of distinct element types with
// non-empty populations, in stable order.
func typePairs(byType map[store.ElementType][]*doc) []typePair {
	types := make([]store.ElementType, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	var pairs []typePair
	for i := 0; i < len(types); i++ {
		for j := i + 1; j < len(types); j++ {
			pairs = append(pairs, typePair{
				a:      types[i],
				b:      types[j],
				weight: len(byType[types[i]]) * len(byType[types[j]]),
			})
		}
	}
	return pairs
}

// samplePair draws random cross-type pairs until target comparisons have been
// performed or the pair space is effectively exhausted.
func (r *buildRun) samplePair(ctx context.Context, as, bs []*doc, target int) {
	if target <= 0 || len(as) == 0 || len(bs) == 0 {
		return
	}

	// Random draws can repeat already-compared pairs; cap the attempts so a
	// small pair space cannot spin forever.
	maxAttempts := target * 4

	done := 0
	for attempt := 0; done < target && attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return
		}
		a := as[r.rng.Intn(len(as))]
		b := bs[r.rng.Intn(len(bs))]
		if r.compare(a, b) {
			done++
		}
	}
}
