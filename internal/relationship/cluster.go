package relationship

import (
	"context"
	"sort"
)

// saturationCutoff excludes a keyword from clustering when it appears in more
// than this fraction of all elements. A ubiquitous term would otherwise pull
// the whole population into one mega-cluster and defeat the sampling.
const saturationCutoff = 0.5

// clusterPass groups elements by shared high-signal keywords and compares
// pairs within each cluster, smallest clusters first: they are the cheapest
// to exhaust and carry the highest signal per comparison.
func (r *buildRun) clusterPass(ctx context.Context, budget int) {
	if budget <= 0 {
		return
	}

	clusters := r.keywordClusters()

	sort.Slice(clusters, func(i, j int) bool {
		if len(clusters[i].members) != len(clusters[j].members) {
			return len(clusters[i].members) < len(clusters[j].members)
		}
		return clusters[i].keyword < clusters[j].keyword
	})

	spent := 0
	for _, cluster := range clusters {
		for i := 0; i < len(cluster.members); i++ {
			for j := i + 1; j < len(cluster.members); j++ {
				if ctx.Err() != nil || spent >= budget {
					return
				}
				if r.compare(cluster.members[i], cluster.members[j]) {
					spent++
				}
			}
		}
	}
}

type cluster struct {
	keyword string
	members []*doc
}

// keywordClusters inverts the per-element keyword lists into keyword-anchored
// clusters, dropping saturated keywords and singleton clusters. Cluster
// membership is capped at the configured sample limit.
func (r *buildRun) keywordClusters() []cluster {
	byKeyword := make(map[string][]*doc)
	for i := range r.docs {
		d := &r.docs[i]
		for _, kw := range d.keywords {
			byKeyword[kw] = append(byKeyword[kw], d)
		}
	}

	maxMembers := int(saturationCutoff * float64(len(r.docs)))
	limit := r.cfg.Sampling.ClusterSampleLimit

	clusters := make([]cluster, 0, len(byKeyword))
	for kw, members := range byKeyword {
		if len(members) < 2 {
			continue
		}
		if len(members) > maxMembers {
			// Saturated keyword: present in more than half the population.
			continue
		}
		if len(members) > limit {
			members = members[:limit]
		}
		clusters = append(clusters, cluster{keyword: kw, members: members})
	}
	return clusters
}
