package recall

import (
	"sort"

	"github.com/bissli/mnemon/internal/store"
	"github.com/bissli/mnemon/pkg/embedding"
)

// Traversal blend: structural contribution dominates, semantic proximity
// to the query nudges.
const (
	lambdaStructural = 1.0
	lambdaSemantic   = 0.4
)

// poolEntry annotates a visited node with the best running score any
// anchor achieved and the edge type that led there.
type poolEntry struct {
	score float64
	via   store.EdgeType
}

// beamSearch expands each anchor best-first over the adjacency snapshot,
// retaining only the top beamWidth frontier nodes per depth, bounded by a
// global visit budget shared across anchors. Cycles are broken by the
// per-anchor best-score map: a node re-enters the frontier only when an
// anchor reaches it with a strictly better score.
func beamSearch(anchors []Anchor, adjacency map[string][]*store.Edge,
	vectors map[string][]float64, qvec []float64, intent Intent) map[string]*poolEntry {

	params := traversalByIntent[intent]
	weights := edgeWeights[intent]

	pool := make(map[string]*poolEntry)
	visited := 0

	record := func(id string, score float64, via store.EdgeType) {
		if entry, ok := pool[id]; !ok {
			pool[id] = &poolEntry{score: score, via: via}
		} else if score > entry.score {
			entry.score = score
			entry.via = via
		}
	}

	for _, anchor := range anchors {
		if visited >= params.maxVisited {
			break
		}
		record(anchor.ID, anchor.RRF, "")

		best := map[string]float64{anchor.ID: anchor.RRF}
		frontier := []scoredID{{anchor.ID, anchor.RRF}}

		for depth := 0; depth < params.maxDepth && len(frontier) > 0; depth++ {
			sort.SliceStable(frontier, func(i, j int) bool {
				if frontier[i].score != frontier[j].score {
					return frontier[i].score > frontier[j].score
				}
				return frontier[i].id < frontier[j].id
			})
			if len(frontier) > params.beamWidth {
				frontier = frontier[:params.beamWidth]
			}

			var next []scoredID
			for _, node := range frontier {
				if visited >= params.maxVisited {
					break
				}
				visited++

				for _, e := range adjacency[node.id] {
					structural := e.Weight * weights[e.Type]
					semantic := 0.0
					if len(qvec) > 0 {
						if nvec, ok := vectors[e.TargetID]; ok {
							semantic = embedding.Cosine(qvec, nvec)
						}
					}
					total := node.score + lambdaStructural*structural + lambdaSemantic*semantic
					if prev, seen := best[e.TargetID]; seen && total <= prev {
						continue
					}
					best[e.TargetID] = total
					record(e.TargetID, total, e.Type)
					next = append(next, scoredID{e.TargetID, total})
				}
			}
			frontier = next
		}
	}
	return pool
}
