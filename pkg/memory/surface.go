package memory

import (
	"sort"

	"github.com/bissli/mnemon/internal/store"
	"github.com/bissli/mnemon/pkg/embedding"
	"github.com/bissli/mnemon/pkg/extraction"
	"github.com/bissli/mnemon/pkg/graph"
)

// Surfacing caps: advisory lists stay short.
const (
	SemanticCandidateCap = 5
	CausalCandidateCap   = 10
	CausalCandidateHops  = 2
)

// SemanticCandidate is an advisory near-match the host agent may link.
type SemanticCandidate struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Cosine     float64 `json:"cosine"`
	AutoLinked bool    `json:"auto_linked"`
}

// CausalCandidate is a node within two hops that carries a causal signal.
type CausalCandidate struct {
	ID               string         `json:"id"`
	Content          string         `json:"content"`
	Hop              int            `json:"hop"`
	ViaEdge          store.EdgeType `json:"via_edge"`
	CausalSignal     string         `json:"causal_signal"`
	SuggestedSubType string         `json:"suggested_sub_type"`
}

func mergeEntities(content string, provided []string) []string {
	return extraction.Extract(content, provided)
}

// qualityWarnings runs the advisory checks of remember. Never fatal.
func qualityWarnings(in RememberInput, entities []string) []string {
	warnings := []string{}
	if len(in.Content) < 10 {
		warnings = append(warnings, "content is very short")
	}
	if len(in.Content) > 4000 {
		warnings = append(warnings, "content is very long; consider splitting")
	}
	if len(entities) == 0 {
		warnings = append(warnings, "no entities recognized")
	}
	if in.Importance == 5 && in.Category == store.CategoryGeneral {
		warnings = append(warnings, "high importance on general category")
	}
	return warnings
}

// semanticCandidates lists active insights in the surfacing band
// [0.40, 0.80): similar enough to mention, not similar enough to
// auto-link. Cosine when both vectors exist, token overlap otherwise.
func (e *Engine) semanticCandidates(in *store.Insight) ([]SemanticCandidate, error) {
	active, err := e.st.Active()
	if err != nil {
		return nil, err
	}

	tokens := extraction.Tokens(in.Content)
	out := []SemanticCandidate{}
	for _, other := range active {
		if other.ID == in.ID {
			continue
		}
		var sim float64
		if len(in.Embedding) > 0 && len(other.Embedding) > 0 {
			sim = embedding.Cosine(in.Embedding, other.Embedding)
		} else {
			sim = extraction.Overlap(tokens, extraction.Tokens(other.Content))
		}
		if sim >= graph.SemanticCandidateMin && sim < graph.SemanticAutoLinkMin {
			out = append(out, SemanticCandidate{
				ID: other.ID, Content: other.Content, Cosine: sim,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Cosine > out[j].Cosine })
	if len(out) > SemanticCandidateCap {
		out = out[:SemanticCandidateCap]
	}
	return out, nil
}

// causalCandidates walks two hops out from the new insight along any edge
// type, keeping nodes that pass the causal synthesis thresholds.
func (e *Engine) causalCandidates(in *store.Insight) ([]CausalCandidate, error) {
	visits, err := graph.BFS(e.st, in.ID, "", CausalCandidateHops)
	if err != nil {
		return nil, err
	}

	tokens := extraction.Tokens(in.Content)
	newKeyword, newSub, newHas := graph.CausalSignal(in.Content)

	out := []CausalCandidate{}
	for _, v := range visits {
		if len(out) >= CausalCandidateCap {
			break
		}
		node, err := e.st.Get(v.ID)
		if err != nil {
			return nil, err
		}
		if node == nil || !node.Active() {
			continue
		}
		overlap := extraction.OverlapOfSmaller(tokens, extraction.Tokens(node.Content))
		if overlap < graph.CausalOverlapMin {
			continue
		}
		keyword, subType := newKeyword, newSub
		if !newHas {
			var ok bool
			if keyword, subType, ok = graph.CausalSignal(node.Content); !ok {
				continue
			}
		}
		out = append(out, CausalCandidate{
			ID: v.ID, Content: node.Content, Hop: v.Hop, ViaEdge: v.Via,
			CausalSignal: keyword, SuggestedSubType: subType,
		})
	}
	return out, nil
}
