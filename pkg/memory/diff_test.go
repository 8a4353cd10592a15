package memory

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bissli/mnemon/internal/store"
)

// vecAtCosine builds a unit 2-vector whose cosine against (1,0) is exactly c.
func vecAtCosine(c float64) []float64 {
	return []float64{c, math.Sqrt(1 - c*c)}
}

func priorWithVec(id string, c float64) *store.Insight {
	return &store.Insight{
		ID: id, Content: "completely disjoint wording here", Category: store.CategoryFact,
		Importance: 3, Source: store.SourceUser, Embedding: vecAtCosine(c),
	}
}

func priorWithContent(id, content string) *store.Insight {
	return &store.Insight{
		ID: id, Content: content, Category: store.CategoryFact,
		Importance: 3, Source: store.SourceUser,
	}
}

// synthetic non-stopword tokens: toka0 toka1 ... toka9 tokb0 ...
func tokens(n, offset int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "tok" + string(rune('a'+(i+offset)/10)) + string(rune('0'+(i+offset)%10))
	}
	return out
}

func TestDiffBands_Cosine(t *testing.T) {
	qvec := []float64{1, 0}

	cases := []struct {
		cos  float64
		want Action
	}{
		{0.95, ActionSkipped},
		{0.901, ActionSkipped},
		{0.90, ActionReplaced}, // inclusive upper bound of the replace band
		{0.82, ActionReplaced},
		{0.70, ActionReplaced},
	}
	for _, tc := range cases {
		action, match := diffAgainstActive(
			[]*store.Insight{priorWithVec("p", tc.cos)}, "new text", qvec)
		assert.Equal(t, tc.want, action, "cosine %v", tc.cos)
		assert.Equal(t, "p", match.ID)
	}
}

func TestDiffBands_TokenOverlap(t *testing.T) {
	// 13 shared tokens, 7 extra on the prior: Jaccard exactly 13/20 = 0.65.
	shared := tokens(13, 0)
	prior := priorWithContent("p", strings.Join(append(tokens(7, 13), shared...), " "))

	action, match := diffAgainstActive(
		[]*store.Insight{prior}, strings.Join(shared, " "), nil)
	assert.Equal(t, ActionReplaced, action, "similarity exactly 0.65 replaces")
	assert.Equal(t, "p", match.ID)

	// One shared token fewer: 12/21 < 0.65, plain add.
	action, _ = diffAgainstActive(
		[]*store.Insight{prior},
		strings.Join(append(tokens(1, 40), shared[:12]...), " "), nil)
	assert.Equal(t, ActionAdded, action)

	// Identical content: 1.0 > 0.90 skips.
	action, _ = diffAgainstActive(
		[]*store.Insight{prior}, prior.Content, nil)
	assert.Equal(t, ActionSkipped, action)
}

func TestDiff_CosineBelowAuthorityDefersToTokens(t *testing.T) {
	// Cosine under 0.7 is not authoritative; with disjoint wording the
	// token score stays near zero and the insert goes through.
	action, _ := diffAgainstActive(
		[]*store.Insight{priorWithVec("p", 0.68)}, "new text", []float64{1, 0})
	assert.Equal(t, ActionAdded, action)
}

func TestDiff_PicksHighestSimilarity(t *testing.T) {
	qvec := []float64{1, 0}
	active := []*store.Insight{
		priorWithVec("low", 0.72),
		priorWithVec("high", 0.88),
	}
	action, match := diffAgainstActive(active, "new text", qvec)
	assert.Equal(t, ActionReplaced, action)
	assert.Equal(t, "high", match.ID)
}

func TestDiff_EmptyActiveSet(t *testing.T) {
	action, match := diffAgainstActive(nil, "anything", nil)
	assert.Equal(t, ActionAdded, action)
	assert.Nil(t, match)
}
