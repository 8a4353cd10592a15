package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bissli/mnemon/internal/store"
	"github.com/bissli/mnemon/pkg/embedding"
)

// testEngine runs against an unreachable embedding endpoint, so every
// pipeline exercises the token-overlap fallback. The clock ticks 48h per
// call to keep proximity edges out of unrelated scenarios.
func testEngine(t *testing.T) *Engine {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "mnemon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	e := New(st, embedding.New("http://127.0.0.1:1", "none"))
	now := int64(1_700_000_000_000)
	e.clock = func() int64 {
		now += 48 * 3600 * 1000
		return now
	}
	return e
}

func remember(t *testing.T, e *Engine, content string, opts ...func(*RememberInput)) *RememberResult {
	t.Helper()
	in := RememberInput{Content: content, Category: store.CategoryFact, Importance: 3}
	for _, opt := range opts {
		opt(&in)
	}
	res, err := e.Remember(context.Background(), in)
	require.NoError(t, err)
	return res
}

func TestRemember_FreshInsert(t *testing.T) {
	e := testEngine(t)

	res, err := e.Remember(context.Background(), RememberInput{
		Content:    "Chose Qdrant over Milvus for vector DB",
		Category:   store.CategoryDecision,
		Importance: 5,
		Entities:   []string{"Qdrant", "Milvus"},
	})
	require.NoError(t, err)

	assert.Equal(t, ActionAdded, res.Action)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 0, res.EdgesCreated.Temporal)
	assert.Equal(t, 0, res.EdgesCreated.Entity)
	assert.Equal(t, 0, res.EdgesCreated.Causal)
	assert.Equal(t, 0, res.EdgesCreated.Semantic)
	assert.Empty(t, res.SemanticCandidates)
	assert.Empty(t, res.CausalCandidates)
	assert.Equal(t, 0, res.AutoPruned)
	assert.False(t, res.Embedded)
	assert.Greater(t, res.EffectiveImportance, 0.0)

	n, err := e.st.ActiveCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRemember_Validation(t *testing.T) {
	e := testEngine(t)

	long := make([]byte, store.MaxContentLen+1)
	for i := range long {
		long[i] = 'x'
	}

	cases := []RememberInput{
		{Content: "", Category: store.CategoryFact, Importance: 3},
		{Content: string(long), Category: store.CategoryFact, Importance: 3},
		{Content: "ok", Category: "mood", Importance: 3},
		{Content: "ok", Category: store.CategoryFact, Importance: 0},
		{Content: "ok", Category: store.CategoryFact, Importance: 6},
		{Content: "ok", Category: store.CategoryFact, Importance: 3, Source: "robot"},
	}
	for i, in := range cases {
		_, err := e.Remember(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidInput, "case %d", i)
	}

	// Exactly 8000 chars is accepted.
	_, err := e.Remember(context.Background(), RememberInput{
		Content: string(long[:store.MaxContentLen]), Category: store.CategoryFact, Importance: 3, NoDiff: true,
	})
	require.NoError(t, err)
}

func TestRemember_SkipDuplicate(t *testing.T) {
	e := testEngine(t)

	first := remember(t, e, "User prefers PostgreSQL for primary storage")
	second := remember(t, e, "User prefers PostgreSQL for primary storage")

	assert.Equal(t, ActionSkipped, second.Action)
	assert.Equal(t, first.ID, second.ID, "skip reports the duplicated id")

	n, err := e.st.ActiveCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRemember_Replace(t *testing.T) {
	e := testEngine(t)

	first := remember(t, e, "User prefers PostgreSQL for primary storage")
	second := remember(t, e, "User prefers PostgreSQL for primary storage layer")

	assert.Equal(t, ActionReplaced, second.Action)
	assert.Equal(t, first.ID, second.ReplacedID)
	assert.NotEqual(t, first.ID, second.ID)

	old, err := e.st.Get(first.ID)
	require.NoError(t, err)
	assert.False(t, old.Active(), "replaced insight is soft-deleted")

	res, err := e.Recall(context.Background(), RecallQuery{Query: "PostgreSQL"})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, second.ID, res.Results[0].Insight.ID)
}

func TestRemember_NoDiffBypassesBands(t *testing.T) {
	e := testEngine(t)

	remember(t, e, "User prefers PostgreSQL for primary storage")
	dup := remember(t, e, "User prefers PostgreSQL for primary storage",
		func(in *RememberInput) { in.NoDiff = true })

	assert.Equal(t, ActionAdded, dup.Action)
	n, err := e.st.ActiveCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRemember_QualityWarnings(t *testing.T) {
	e := testEngine(t)

	res := remember(t, e, "short", func(in *RememberInput) {
		in.Category = store.CategoryGeneral
		in.Importance = 5
	})
	assert.Contains(t, res.QualityWarnings, "content is very short")
	assert.Contains(t, res.QualityWarnings, "no entities recognized")
	assert.Contains(t, res.QualityWarnings, "high importance on general category")
}

func TestForget_CascadesAndDisappears(t *testing.T) {
	e := testEngine(t)

	remember(t, e, "We use HttpServer and DataStore")
	b := remember(t, e, "HttpServer handles every API request path")

	require.NoError(t, e.Forget(b.ID))

	edges, err := e.st.AllEdges()
	require.NoError(t, err)
	for _, edge := range edges {
		assert.NotEqual(t, b.ID, edge.SourceID)
		assert.NotEqual(t, b.ID, edge.TargetID)
	}

	res, err := e.Recall(context.Background(), RecallQuery{Query: "HttpServer request"})
	require.NoError(t, err)
	for _, r := range res.Results {
		assert.NotEqual(t, b.ID, r.Insight.ID)
	}

	assert.ErrorIs(t, e.Forget(b.ID), ErrNotFound, "second forget finds nothing")
}

func TestLink_UpsertAndValidation(t *testing.T) {
	e := testEngine(t)

	a := remember(t, e, "alpha subsystem owns ingestion")
	b := remember(t, e, "beta subsystem owns retrieval paths")

	require.NoError(t, e.Link(a.ID, b.ID, store.EdgeCausal, 0.4, nil))
	require.NoError(t, e.Link(a.ID, b.ID, store.EdgeCausal, 0.9, nil))

	edges, err := e.st.EdgesFrom(a.ID, store.EdgeCausal)
	require.NoError(t, err)
	require.Len(t, edges, 1, "link is an upsert")
	assert.Equal(t, 0.9, edges[0].Weight)

	assert.ErrorIs(t, e.Link(a.ID, a.ID, store.EdgeCausal, 0.5, nil), ErrInvalidInput)
	assert.ErrorIs(t, e.Link(a.ID, b.ID, "friendship", 0.5, nil), ErrInvalidInput)
	assert.ErrorIs(t, e.Link(a.ID, b.ID, store.EdgeCausal, 1.5, nil), ErrInvalidInput)
	assert.ErrorIs(t, e.Link(a.ID, "ghost", store.EdgeCausal, 0.5, nil), ErrNotFound)
}

func TestBoost_GrantsImmunity(t *testing.T) {
	e := testEngine(t)

	res := remember(t, e, "a low importance note", func(in *RememberInput) { in.Importance = 1 })

	first, err := e.Boost(res.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, first.AccessCount)
	assert.True(t, Immune(first))

	second, err := e.Boost(res.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, second.AccessCount, "boosts accumulate")

	_, err = e.Boost("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecall_SideEffects(t *testing.T) {
	e := testEngine(t)

	res := remember(t, e, "PostgreSQL pooling is configured via pgbouncer")

	out, err := e.Recall(context.Background(), RecallQuery{Query: "PostgreSQL pooling"})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)

	got, err := e.st.Get(res.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AccessCount)
	assert.NotNil(t, got.LastAccessedAt)
}

func TestRecall_IntentOverrideValidation(t *testing.T) {
	e := testEngine(t)
	remember(t, e, "anything at all really")

	_, err := e.Recall(context.Background(), RecallQuery{Query: "x", IntentOverride: "urgency"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAutoPrune_BoundsActiveSet(t *testing.T) {
	e := testEngine(t)

	// Pre-load the store to the ceiling without running synthesis.
	err := e.st.WithTx(func(tx *store.Tx) error {
		for i := 0; i < PruneActiveMax; i++ {
			in := &store.Insight{
				ID:         fmt.Sprintf("seed-%04d", i),
				Content:    fmt.Sprintf("filler insight number %d", i),
				Category:   store.CategoryGeneral,
				Importance: 1,
				Source:     store.SourceAgent,
				CreatedAt:  int64(i),
				UpdatedAt:  int64(i),
			}
			if err := tx.Insert(in); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	res := remember(t, e, "the one insight over the ceiling",
		func(in *RememberInput) { in.NoDiff = true })
	assert.GreaterOrEqual(t, res.AutoPruned, 1)

	n, err := e.st.ActiveCount()
	require.NoError(t, err)
	assert.LessOrEqual(t, n, PruneActiveMax)
}

func TestGCReview_ReadOnly(t *testing.T) {
	e := testEngine(t)

	low := remember(t, e, "barely worth keeping", func(in *RememberInput) { in.Importance = 1 })
	remember(t, e, "critical production credential rotation policy",
		func(in *RememberInput) { in.Importance = 5 })

	items, err := e.GCReview(10.0, 50)
	require.NoError(t, err)
	require.Len(t, items, 1, "immune insights never appear in review")
	assert.Equal(t, low.ID, items[0].ID)

	n, _ := e.st.ActiveCount()
	assert.Equal(t, 2, n, "review mutates nothing")
}

func TestRelated_FollowsEdgeType(t *testing.T) {
	e := testEngine(t)

	a := remember(t, e, "We use HttpServer and DataStore")
	b := remember(t, e, "HttpServer handles every API request path")

	items, err := e.Related(a.ID, store.EdgeEntity, 1)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, store.EdgeEntity, items[0].Via)

	_, err = e.Related("ghost", store.EdgeEntity, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatusReport(t *testing.T) {
	e := testEngine(t)

	remember(t, e, "one decision about Kafka topics",
		func(in *RememberInput) { in.Category = store.CategoryDecision })
	remember(t, e, "one plain fact about Redis eviction")

	st, err := e.StatusReport(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Active)
	assert.Equal(t, 1, st.ByCategory[store.CategoryDecision])
	assert.False(t, st.OllamaAvailable)
	assert.Greater(t, st.OpLogSize, 0)
}
