package recall

import (
	"sort"
	"strings"

	"github.com/bissli/mnemon/internal/store"
	"github.com/bissli/mnemon/pkg/embedding"
	"github.com/bissli/mnemon/pkg/extraction"
)

// Signals is the per-result score breakdown exposed verbatim.
type Signals struct {
	Keyword    float64 `json:"keyword"`
	Entity     float64 `json:"entity"`
	Similarity float64 `json:"similarity"`
	Graph      float64 `json:"graph"`
}

// Result is one ranked recall hit.
type Result struct {
	Insight *store.Insight `json:"insight"`
	Score   float64        `json:"score"`
	Signals Signals        `json:"signals"`
	Via     store.EdgeType `json:"via,omitempty"`
	Intent  Intent         `json:"intent"`
}

// rerank blends the four signals per candidate. The graph signal is the
// traversal score min-max normalized over the pool (0 when degenerate).
func rerank(query string, qvec []float64, qEntities []string, intent Intent,
	pool map[string]*poolEntry, byID map[string]*store.Insight) []Result {

	weights := rerankByIntent[intent]
	if len(qvec) == 0 {
		weights = weights.withoutEmbedding()
	}

	qTokens := extraction.Tokens(query)
	qset := make(map[string]bool, len(qEntities))
	for _, e := range qEntities {
		qset[strings.ToLower(e)] = true
	}

	minScore, maxScore := 0.0, 0.0
	first := true
	for _, entry := range pool {
		if first {
			minScore, maxScore = entry.score, entry.score
			first = false
			continue
		}
		if entry.score < minScore {
			minScore = entry.score
		}
		if entry.score > maxScore {
			maxScore = entry.score
		}
	}
	spread := maxScore - minScore

	var out []Result
	for id, entry := range pool {
		in, ok := byID[id]
		if !ok {
			continue
		}

		var sig Signals

		if len(qTokens) > 0 {
			inter := 0
			cTokens := extraction.Tokens(in.Content)
			for tok := range qTokens {
				if _, ok := cTokens[tok]; ok {
					inter++
				}
			}
			sig.Keyword = float64(inter) / float64(len(qTokens))
		}

		if len(qset) > 0 {
			shared := 0
			for _, e := range in.Entities {
				if qset[strings.ToLower(e)] {
					shared++
				}
			}
			sig.Entity = float64(shared) / float64(len(qset))
		}

		if len(qvec) > 0 && len(in.Embedding) > 0 {
			sig.Similarity = embedding.Cosine(qvec, in.Embedding)
		}

		if spread > 0 {
			sig.Graph = (entry.score - minScore) / spread
		}

		score := weights.keyword*sig.Keyword + weights.entity*sig.Entity +
			weights.similarity*sig.Similarity + weights.graph*sig.Graph

		out = append(out, Result{
			Insight: in,
			Score:   score,
			Signals: sig,
			Via:     entry.via,
			Intent:  intent,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Insight.ID < out[j].Insight.ID
	})
	return out
}
