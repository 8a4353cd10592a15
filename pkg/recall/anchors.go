package recall

import (
	"sort"
	"strings"

	"github.com/bissli/mnemon/internal/store"
	"github.com/bissli/mnemon/pkg/embedding"
	"github.com/bissli/mnemon/pkg/extraction"
)

// Anchor fusion constants: four signals, top-20 per ranked signal, RRF
// with k=60 over 0-indexed ranks.
const (
	anchorSignalTop = 20
	rrfK            = 60.0
	vectorAnchorMin = 0.10
)

// Anchor is a fused entry point into the graph.
type Anchor struct {
	ID  string
	RRF float64
}

// selectAnchors fuses the keyword, vector, recency and entity signals over
// the active set. The vector signal is skipped entirely without a query
// embedding; the fusion never requires any one signal to be present.
func selectAnchors(query string, qvec []float64, qEntities []string, active []*store.Insight) []Anchor {
	qTokens := extraction.Tokens(query)

	var rankings [][]string

	// Keyword: token overlap, descending.
	var keyword []scoredID
	for _, in := range active {
		if s := extraction.Overlap(qTokens, extraction.Tokens(in.Content)); s > 0 {
			keyword = append(keyword, scoredID{in.ID, s})
		}
	}
	sort.SliceStable(keyword, func(i, j int) bool { return keyword[i].score > keyword[j].score })
	rankings = append(rankings, topIDs(keyword, anchorSignalTop))

	// Vector: cosine against the query embedding, gated at 0.10.
	if len(qvec) > 0 {
		var vector []scoredID
		for _, in := range active {
			if len(in.Embedding) == 0 {
				continue
			}
			if cos := embedding.Cosine(qvec, in.Embedding); cos >= vectorAnchorMin {
				vector = append(vector, scoredID{in.ID, cos})
			}
		}
		sort.SliceStable(vector, func(i, j int) bool { return vector[i].score > vector[j].score })
		rankings = append(rankings, topIDs(vector, anchorSignalTop))
	}

	// Recency: active set is already newest-first.
	var recency []string
	for i, in := range active {
		if i >= anchorSignalTop {
			break
		}
		recency = append(recency, in.ID)
	}
	rankings = append(rankings, recency)

	// Entity: anything sharing an entity with the query's extracted set.
	qset := make(map[string]bool, len(qEntities))
	for _, e := range qEntities {
		qset[strings.ToLower(e)] = true
	}
	var entity []string
	for _, in := range active {
		for _, e := range in.Entities {
			if qset[strings.ToLower(e)] {
				entity = append(entity, in.ID)
				break
			}
		}
	}
	rankings = append(rankings, entity)

	// Reciprocal rank fusion.
	fused := make(map[string]float64)
	for _, ranking := range rankings {
		for rank, id := range ranking {
			fused[id] += 1.0 / (rrfK + float64(rank) + 1.0)
		}
	}

	out := make([]Anchor, 0, len(fused))
	for id, score := range fused {
		out = append(out, Anchor{ID: id, RRF: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RRF != out[j].RRF {
			return out[i].RRF > out[j].RRF
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type scoredID struct {
	id    string
	score float64
}

func topIDs(scored []scoredID, n int) []string {
	if len(scored) > n {
		scored = scored[:n]
	}
	ids := make([]string, len(scored))
	for i, s := range scored {
		ids[i] = s.id
	}
	return ids
}
