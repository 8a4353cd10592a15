package recall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bissli/mnemon/internal/store"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		query string
		want  Intent
	}{
		{"why did we switch to Qdrant", IntentWhy},
		{"what was the reason for the outage", IntentWhy},
		{"为什么选择这个方案", IntentWhy},
		{"when did the migration happen", IntentWhen},
		{"timeline of the deploy", IntentWhen},
		{"什么时候上线", IntentWhen},
		{"what is the ingest worker", IntentEntity},
		{"tell me about the cache layer", IntentEntity},
		{"关于缓存", IntentEntity},
		{"postgres tuning notes", IntentGeneral},
		{"", IntentGeneral},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Detect(tc.query), "query %q", tc.query)
	}
}

func TestParseOverride(t *testing.T) {
	got, err := ParseOverride("why")
	require.NoError(t, err)
	assert.Equal(t, IntentWhy, got)

	_, err = ParseOverride("urgency")
	assert.Error(t, err)
}

func mkActive(id, content string, at int64, entities ...string) *store.Insight {
	return &store.Insight{
		ID: id, Content: content, Category: store.CategoryFact, Importance: 3,
		Source: store.SourceUser, Entities: entities, CreatedAt: at, UpdatedAt: at,
	}
}

func TestSelectAnchors_RRF(t *testing.T) {
	active := []*store.Insight{
		mkActive("new", "unrelated bootstrap notes", 300),
		mkActive("hit", "postgres pooling configuration", 200, "PostgreSQL"),
		mkActive("old", "postgres backup schedule", 100),
	}

	anchors := selectAnchors("postgres pooling", nil, []string{"PostgreSQL"}, active)
	require.NotEmpty(t, anchors)
	assert.Equal(t, "hit", anchors[0].ID,
		"keyword + recency + entity fusion outranks single-signal docs")

	// rank 0 in keyword, rank 1 in recency, rank 0 in entity
	want := 1.0/61.0 + 1.0/62.0 + 1.0/61.0
	assert.InDelta(t, want, anchors[0].RRF, 1e-9)
}

func TestSelectAnchors_NoKeywordNoVector(t *testing.T) {
	active := []*store.Insight{
		mkActive("a", "first note", 100),
		mkActive("b", "second note", 200),
	}
	anchors := selectAnchors("zzz qqq", nil, nil, active)
	assert.Len(t, anchors, 2, "recency alone still anchors")
}

func TestRun_EmptyStore(t *testing.T) {
	got := Run(Input{Query: "anything", Intent: IntentGeneral}, nil, nil)
	assert.Nil(t, got)
}

func TestRun_LimitAndSignals(t *testing.T) {
	var active []*store.Insight
	for i := 0; i < 15; i++ {
		active = append(active, mkActive(string(rune('a'+i)), "postgres note variant", int64(i)))
	}
	got := Run(Input{Query: "postgres", Intent: IntentGeneral, Limit: 3}, active, nil)
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Equal(t, IntentGeneral, r.Intent)
		assert.Greater(t, r.Signals.Keyword, 0.0)
		assert.Equal(t, 0.0, r.Signals.Similarity, "no embedding, similarity stays zero")
	}
}

func TestRun_CategoryFilter(t *testing.T) {
	active := []*store.Insight{
		mkActive("a", "postgres decision", 100),
		mkActive("b", "postgres fact", 200),
	}
	active[0].Category = store.CategoryDecision

	got := Run(Input{Query: "postgres", Intent: IntentGeneral, Category: store.CategoryDecision}, active, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Insight.ID)
}

func causalChain(t *testing.T) ([]*store.Insight, map[string][]*store.Edge) {
	t.Helper()
	cause := mkActive("cause", "disk pressure alarm on node three", 100)
	middle := mkActive("middle", "disk pressure forced compaction pause", 200)
	effect := mkActive("effect", "compaction pause made reads slow", 300)

	adjacency := map[string][]*store.Edge{
		"cause": {{SourceID: "cause", TargetID: "middle", Type: store.EdgeCausal, Weight: 0.9}},
		"middle": {{SourceID: "middle", TargetID: "effect", Type: store.EdgeCausal, Weight: 0.9}},
	}
	return []*store.Insight{effect, middle, cause}, adjacency
}

func TestRun_WhyTopologicalOrder(t *testing.T) {
	active, adjacency := causalChain(t)

	got := Run(Input{Query: "why are reads slow", Intent: IntentWhy, Limit: 3}, active, adjacency)
	require.Len(t, got, 3)
	assert.Equal(t, "cause", got[0].Insight.ID)
	assert.Equal(t, "middle", got[1].Insight.ID)
	assert.Equal(t, "effect", got[2].Insight.ID)
	for _, r := range got {
		assert.Equal(t, IntentWhy, r.Intent)
	}
}

func TestCausalOrder_ToleratesCycles(t *testing.T) {
	a := mkActive("a", "a", 1)
	b := mkActive("b", "b", 2)
	results := []Result{
		{Insight: a, Score: 0.9},
		{Insight: b, Score: 0.5},
	}
	adjacency := map[string][]*store.Edge{
		"a": {{SourceID: "a", TargetID: "b", Type: store.EdgeCausal, Weight: 0.9}},
		"b": {{SourceID: "b", TargetID: "a", Type: store.EdgeCausal, Weight: 0.2}},
	}
	got := causalOrder(results, adjacency)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Insight.ID, "lowest-weight back-edge dropped")
}

func TestRerankWeights_WithoutEmbedding(t *testing.T) {
	w := rerankByIntent[IntentWhy].withoutEmbedding()
	assert.Equal(t, 0.0, w.similarity)
	assert.InDelta(t, 1.0, w.keyword+w.entity+w.graph, 1e-9, "weights still sum to one")
	assert.Greater(t, w.graph, rerankByIntent[IntentWhy].graph, "graph share grows")
}

func TestBeamSearch_RespectsVisitBudget(t *testing.T) {
	// Star graph with more spokes than the visit budget. The budget counts
	// expanded nodes, so the single hub expansion pools every spoke; the
	// pool never grows past the graph's 601 nodes.
	adjacency := map[string][]*store.Edge{}
	var anchors []Anchor
	for i := 0; i < 600; i++ {
		id := itoa(i)
		adjacency["hub"] = append(adjacency["hub"], &store.Edge{SourceID: "hub", TargetID: id, Type: store.EdgeEntity, Weight: 1})
	}
	anchors = append(anchors, Anchor{ID: "hub", RRF: 0.1})

	pool := beamSearch(anchors, adjacency, nil, nil, IntentGeneral)
	assert.NotEmpty(t, pool)
	assert.LessOrEqual(t, len(pool), 601)
}

func itoa(i int) string {
	if i == 0 {
		return "n0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}
	return "n" + digits
}
