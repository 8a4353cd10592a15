package graph

import (
	"sort"

	"github.com/bissli/mnemon/internal/store"
)

// Visit is one node reached during a breadth-first walk.
type Visit struct {
	ID  string
	Hop int
	Via store.EdgeType
}

// BFS walks outgoing edges from rootID up to maxDepth hops. An empty
// edgeType follows every layer. The root itself is not reported. Cycles
// are handled with an explicit visited set; never recurse on this graph.
func BFS(st *store.Store, rootID string, edgeType store.EdgeType, maxDepth int) ([]Visit, error) {
	visited := map[string]bool{rootID: true}
	frontier := []string{rootID}
	var out []Visit

	for hop := 1; hop <= maxDepth && len(frontier) > 0; hop++ {
		var next []string
		for _, id := range frontier {
			edges, err := st.EdgesFrom(id, edgeType)
			if err != nil {
				return nil, err
			}
			// Deterministic expansion order regardless of row order.
			sort.Slice(edges, func(i, j int) bool {
				if edges[i].TargetID != edges[j].TargetID {
					return edges[i].TargetID < edges[j].TargetID
				}
				return edges[i].Type < edges[j].Type
			})
			for _, e := range edges {
				if visited[e.TargetID] {
					continue
				}
				visited[e.TargetID] = true
				out = append(out, Visit{ID: e.TargetID, Hop: hop, Via: e.Type})
				next = append(next, e.TargetID)
			}
		}
		frontier = next
	}
	return out, nil
}
