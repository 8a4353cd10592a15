package recall

import (
	"github.com/bissli/mnemon/internal/store"
)

// causalOrder applies a Kahn topological sort over the causal subgraph
// restricted to the result set, so causes precede effects. Ties break on
// descending final score (stable). Cycles are tolerated: when no
// zero-indegree node remains, the lowest-weight edge still in play is
// dropped and the sort continues.
func causalOrder(results []Result, adjacency map[string][]*store.Edge) []Result {
	inSet := make(map[string]int, len(results))
	for i, r := range results {
		inSet[r.Insight.ID] = i
	}

	type edge struct {
		from, to string
		weight   float64
	}
	var edges []edge
	indegree := make(map[string]int, len(results))
	for _, r := range results {
		indegree[r.Insight.ID] = 0
	}
	for _, r := range results {
		for _, e := range adjacency[r.Insight.ID] {
			if e.Type != store.EdgeCausal {
				continue
			}
			if _, ok := inSet[e.TargetID]; !ok {
				continue
			}
			edges = append(edges, edge{from: e.SourceID, to: e.TargetID, weight: e.Weight})
			indegree[e.TargetID]++
		}
	}

	remaining := make(map[string]bool, len(results))
	for _, r := range results {
		remaining[r.Insight.ID] = true
	}

	// Ready nodes ordered by descending score, then id, via the original
	// result ordering (already score-sorted).
	ready := func() []string {
		var ids []string
		for _, r := range results {
			id := r.Insight.ID
			if remaining[id] && indegree[id] == 0 {
				ids = append(ids, id)
			}
		}
		return ids
	}

	var order []string
	for len(order) < len(results) {
		ids := ready()
		if len(ids) == 0 {
			// Cycle: drop the lowest-weight edge among remaining nodes.
			bestIdx := -1
			for i, e := range edges {
				if !remaining[e.from] || !remaining[e.to] {
					continue
				}
				if bestIdx == -1 || e.weight < edges[bestIdx].weight {
					bestIdx = i
				}
			}
			if bestIdx == -1 {
				break
			}
			indegree[edges[bestIdx].to]--
			edges = append(edges[:bestIdx], edges[bestIdx+1:]...)
			continue
		}
		id := ids[0]
		order = append(order, id)
		remaining[id] = false
		kept := edges[:0]
		for _, e := range edges {
			if e.from == id && remaining[e.to] {
				indegree[e.to]--
				continue
			}
			kept = append(kept, e)
		}
		edges = kept
	}

	sorted := make([]Result, 0, len(results))
	for _, id := range order {
		sorted = append(sorted, results[inSet[id]])
	}
	// Anything unreachable by the loop (defensive) keeps its rank.
	if len(sorted) < len(results) {
		seen := make(map[string]bool, len(sorted))
		for _, r := range sorted {
			seen[r.Insight.ID] = true
		}
		for _, r := range results {
			if !seen[r.Insight.ID] {
				sorted = append(sorted, r)
			}
		}
	}
	return sorted
}
