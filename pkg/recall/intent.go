// Package recall implements the read pipeline: intent detection, anchor
// selection by reciprocal rank fusion, intent-adaptive beam traversal,
// multi-factor re-ranking and causal ordering. Everything here is pure
// over snapshots; side effects stay with the engine.
package recall

import (
	"fmt"
	"regexp"

	"github.com/bissli/mnemon/internal/store"
)

// Intent is the coarse query class steering traversal and ranking.
type Intent string

const (
	IntentWhy     Intent = "why"
	IntentWhen    Intent = "when"
	IntentEntity  Intent = "entity"
	IntentGeneral Intent = "general"
)

// Bilingual trigger families; first match wins, GENERAL otherwise.
var (
	whyRe    = regexp.MustCompile(`(?i)\bwhy\b|\breasons?\b|\bbecause\b|\bcauses?d?\b|\bmotivation\b|为什么|原因|理由`)
	whenRe   = regexp.MustCompile(`(?i)\bwhen\b|\btimes?\b|\bbefore\b|\bafter\b|\btimeline\b|什么时候|何时|时间`)
	entityRe = regexp.MustCompile(`(?i)\bwhat\s+is\b|\bwho\s+is\b|\btell\s+me\s+about\b|是什么|谁是|关于`)
)

// Detect classifies a query.
func Detect(query string) Intent {
	switch {
	case whyRe.MatchString(query):
		return IntentWhy
	case whenRe.MatchString(query):
		return IntentWhen
	case entityRe.MatchString(query):
		return IntentEntity
	default:
		return IntentGeneral
	}
}

// ParseOverride validates a caller-supplied intent name.
func ParseOverride(s string) (Intent, error) {
	switch Intent(s) {
	case IntentWhy, IntentWhen, IntentEntity, IntentGeneral:
		return Intent(s), nil
	}
	return "", fmt.Errorf("unknown intent override %q", s)
}

// traversalParams bounds the beam search per intent.
type traversalParams struct {
	beamWidth  int
	maxDepth   int
	maxVisited int
}

var traversalByIntent = map[Intent]traversalParams{
	IntentWhy:     {beamWidth: 15, maxDepth: 5, maxVisited: 500},
	IntentWhen:    {beamWidth: 10, maxDepth: 5, maxVisited: 400},
	IntentEntity:  {beamWidth: 10, maxDepth: 4, maxVisited: 400},
	IntentGeneral: {beamWidth: 10, maxDepth: 4, maxVisited: 500},
}

// edgeWeights scales structural contribution per edge type during
// traversal.
var edgeWeights = map[Intent]map[store.EdgeType]float64{
	IntentWhy:     {store.EdgeCausal: 0.70, store.EdgeTemporal: 0.20, store.EdgeEntity: 0.05, store.EdgeSemantic: 0.05},
	IntentWhen:    {store.EdgeCausal: 0.15, store.EdgeTemporal: 0.65, store.EdgeEntity: 0.10, store.EdgeSemantic: 0.10},
	IntentEntity:  {store.EdgeCausal: 0.10, store.EdgeTemporal: 0.05, store.EdgeEntity: 0.55, store.EdgeSemantic: 0.30},
	IntentGeneral: {store.EdgeCausal: 0.25, store.EdgeTemporal: 0.25, store.EdgeEntity: 0.25, store.EdgeSemantic: 0.25},
}

// rerankWeights is the signal blend per intent when a query embedding is
// present. Without one, w_sim is redistributed proportionally onto
// keyword and graph.
type rerankWeights struct {
	keyword    float64
	entity     float64
	similarity float64
	graph      float64
}

var rerankByIntent = map[Intent]rerankWeights{
	IntentWhy:     {keyword: 0.10, entity: 0.10, similarity: 0.30, graph: 0.50},
	IntentWhen:    {keyword: 0.15, entity: 0.15, similarity: 0.30, graph: 0.40},
	IntentEntity:  {keyword: 0.20, entity: 0.40, similarity: 0.20, graph: 0.20},
	IntentGeneral: {keyword: 0.25, entity: 0.25, similarity: 0.25, graph: 0.25},
}

func (w rerankWeights) withoutEmbedding() rerankWeights {
	kwGr := w.keyword + w.graph
	if kwGr == 0 {
		return rerankWeights{keyword: w.keyword + w.similarity/2, entity: w.entity, graph: w.graph + w.similarity/2}
	}
	return rerankWeights{
		keyword: w.keyword + w.similarity*w.keyword/kwGr,
		entity:  w.entity,
		graph:   w.graph + w.similarity*w.graph/kwGr,
	}
}
