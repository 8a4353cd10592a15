package memory

import (
	"github.com/bissli/mnemon/internal/store"
	"github.com/bissli/mnemon/pkg/embedding"
	"github.com/bissli/mnemon/pkg/extraction"
)

// Diff decision bands over the maximum similarity against any active
// insight: above SkipMin the insert is dropped, inside the replace band
// the best prior match is superseded.
const (
	DiffSkipMin    = 0.90 // exclusive: > skips
	DiffReplaceMin = 0.65 // inclusive band [0.65, 0.90]

	// Cosine overrides token overlap once it clears this bar and beats
	// the overlap score; embeddings see paraphrase that tokens miss.
	DiffCosineAuthority = 0.70
)

// Action is the diff outcome reported by remember.
type Action string

const (
	ActionAdded    Action = "added"
	ActionReplaced Action = "replaced"
	ActionSkipped  Action = "skipped"
)

// similarity scores a candidate pair: token overlap by default, cosine
// when both vectors exist and the cosine is authoritative.
func similarity(content string, vec []float64, tokens map[string]struct{}, other *store.Insight) float64 {
	score := extraction.Overlap(tokens, extraction.Tokens(other.Content))
	if len(vec) > 0 && len(other.Embedding) > 0 {
		cos := embedding.Cosine(vec, other.Embedding)
		if cos >= DiffCosineAuthority && cos > score {
			score = cos
		}
	}
	return score
}

// diffAgainstActive finds the single highest-similarity active insight and
// maps the score onto the decision bands. Read-only; runs before the write
// transaction opens.
func diffAgainstActive(active []*store.Insight, content string, vec []float64) (Action, *store.Insight) {
	tokens := extraction.Tokens(content)

	var best *store.Insight
	bestScore := 0.0
	for _, other := range active {
		if s := similarity(content, vec, tokens, other); s > bestScore {
			bestScore, best = s, other
		}
	}

	switch {
	case best == nil || bestScore < DiffReplaceMin:
		return ActionAdded, nil
	case bestScore > DiffSkipMin:
		return ActionSkipped, best
	default:
		return ActionReplaced, best
	}
}
