package recall

import (
	"github.com/bissli/mnemon/internal/store"
)

// DefaultLimit bounds a recall response when the caller does not set one.
const DefaultLimit = 10

// Input is one recall request over a snapshot of the store.
type Input struct {
	Query    string
	Vec      []float64
	Entities []string
	Intent   Intent
	Limit    int
	Category store.Category
	Source   store.Source
	Basic    bool
}

// Run executes the full read pipeline over the given active set and edge
// adjacency (source id to outgoing edges). Pure: no store access, no side
// effects; the engine applies access-counter updates afterwards.
func Run(in Input, active []*store.Insight, adjacency map[string][]*store.Edge) []Result {
	if in.Limit <= 0 {
		in.Limit = DefaultLimit
	}

	filtered := active[:0:0]
	for _, ins := range active {
		if in.Category != "" && ins.Category != in.Category {
			continue
		}
		if in.Source != "" && ins.Source != in.Source {
			continue
		}
		filtered = append(filtered, ins)
	}
	if len(filtered) == 0 {
		return nil
	}

	byID := make(map[string]*store.Insight, len(filtered))
	vectors := make(map[string][]float64)
	for _, ins := range filtered {
		byID[ins.ID] = ins
		if len(ins.Embedding) > 0 {
			vectors[ins.ID] = ins.Embedding
		}
	}

	anchors := selectAnchors(in.Query, in.Vec, in.Entities, filtered)
	if len(anchors) == 0 {
		return nil
	}

	var pool map[string]*poolEntry
	if in.Basic {
		// Basic mode skips traversal: anchors are the candidate pool.
		pool = make(map[string]*poolEntry, len(anchors))
		for _, a := range anchors {
			pool[a.ID] = &poolEntry{score: a.RRF}
		}
	} else {
		pool = beamSearch(anchors, adjacency, vectors, in.Vec, in.Intent)
	}

	results := rerank(in.Query, in.Vec, in.Entities, in.Intent, pool, byID)
	if len(results) > in.Limit {
		results = results[:in.Limit]
	}

	if in.Intent == IntentWhy {
		results = causalOrder(results, adjacency)
	}
	return results
}
