package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "mnemon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func insertInsight(t *testing.T, s *Store, in *Insight) {
	t.Helper()
	require.NoError(t, s.WithTx(func(tx *Tx) error { return tx.Insert(in) }))
}

func TestInsightRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := &Insight{
		ID:         "a1",
		Content:    "Chose Qdrant over Milvus for vector DB",
		Category:   CategoryDecision,
		Importance: 5,
		Tags:       []string{"infra", "vector"},
		Entities:   []string{"Qdrant", "Milvus"},
		Source:     SourceUser,
		Embedding:  []float64{0.1, 0.2, 0.3},
		CreatedAt:  1000,
		UpdatedAt:  1000,
	}
	insertInsight(t, s, in)

	got, err := s.Get("a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in.Content, got.Content)
	assert.Equal(t, in.Category, got.Category)
	assert.Equal(t, in.Tags, got.Tags)
	assert.Equal(t, in.Entities, got.Entities)
	assert.Equal(t, in.Embedding, got.Embedding)
	assert.True(t, got.Active())
	assert.Nil(t, got.LastAccessedAt)
}

func TestGet_Missing(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSoftDeleteCascadesEdges(t *testing.T) {
	s := openTestStore(t)
	insertInsight(t, s, &Insight{ID: "a", Content: "x", Category: CategoryFact, Importance: 3, Source: SourceUser, CreatedAt: 1, UpdatedAt: 1})
	insertInsight(t, s, &Insight{ID: "b", Content: "y", Category: CategoryFact, Importance: 3, Source: SourceUser, CreatedAt: 2, UpdatedAt: 2})

	require.NoError(t, s.WithTx(func(tx *Tx) error {
		if err := tx.UpsertEdge(&Edge{SourceID: "a", TargetID: "b", Type: EdgeSemantic, Weight: 0.9, CreatedAt: 3}); err != nil {
			return err
		}
		return tx.UpsertEdge(&Edge{SourceID: "b", TargetID: "a", Type: EdgeSemantic, Weight: 0.9, CreatedAt: 3})
	}))

	require.NoError(t, s.WithTx(func(tx *Tx) error { return tx.SoftDelete("a", 10) }))

	got, err := s.Get("a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Active())

	edges, err := s.AllEdges()
	require.NoError(t, err)
	assert.Empty(t, edges, "cascade removes every incident edge")

	n, err := s.ActiveCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertEdgeIdempotent(t *testing.T) {
	s := openTestStore(t)
	insertInsight(t, s, &Insight{ID: "a", Content: "x", Category: CategoryFact, Importance: 3, Source: SourceUser, CreatedAt: 1, UpdatedAt: 1})
	insertInsight(t, s, &Insight{ID: "b", Content: "y", Category: CategoryFact, Importance: 3, Source: SourceUser, CreatedAt: 2, UpdatedAt: 2})

	link := func(w float64) error {
		return s.WithTx(func(tx *Tx) error {
			return tx.UpsertEdge(&Edge{SourceID: "a", TargetID: "b", Type: EdgeCausal, Weight: w,
				Metadata: map[string]string{"sub_type": "causes"}, CreatedAt: 5})
		})
	}
	require.NoError(t, link(0.5))
	require.NoError(t, link(0.8))

	edges, err := s.EdgesFrom("a", EdgeCausal)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, 0.8, edges[0].Weight)
	assert.Equal(t, "causes", edges[0].Metadata["sub_type"])
}

func TestActiveWithEntity_ExactMember(t *testing.T) {
	s := openTestStore(t)
	insertInsight(t, s, &Insight{ID: "a", Content: "x", Category: CategoryFact, Importance: 3, Source: SourceUser, Entities: []string{"HttpServer", "DataStore"}, CreatedAt: 1, UpdatedAt: 1})
	insertInsight(t, s, &Insight{ID: "b", Content: "y", Category: CategoryFact, Importance: 3, Source: SourceUser, Entities: []string{"HttpServerPool"}, CreatedAt: 2, UpdatedAt: 2})

	err := s.WithTx(func(tx *Tx) error {
		got, err := tx.ActiveWithEntity("HttpServer", "z", 5)
		if err != nil {
			return err
		}
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestOpLogTrim(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.WithTx(func(tx *Tx) error {
		for i := 0; i < OpLogCap+25; i++ {
			if err := tx.AppendOp("remember", "", "", int64(i)); err != nil {
				return err
			}
		}
		return nil
	}))

	n, err := s.OpLogSize()
	require.NoError(t, err)
	assert.Equal(t, OpLogCap, n)

	recent, err := s.RecentOps(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, int64(OpLogCap+24), recent[0].CreatedAt, "oldest entries trimmed first")
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s := openTestStore(t)

	err := s.WithTx(func(tx *Tx) error {
		if err := tx.Insert(&Insight{ID: "a", Content: "x", Category: CategoryFact, Importance: 3, Source: SourceUser, CreatedAt: 1, UpdatedAt: 1}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Nil(t, got, "rolled-back insert leaves no row")
}

func TestMigrateLegacy(t *testing.T) {
	root := t.TempDir()
	legacy := filepath.Join(root, "mnemon.db")
	require.NoError(t, os.WriteFile(legacy, []byte("db"), 0o644))

	require.NoError(t, MigrateLegacy(root))

	_, err := os.Stat(legacy)
	assert.True(t, os.IsNotExist(err))
	moved, err := os.ReadFile(filepath.Join(root, "data", "default", "mnemon.db"))
	require.NoError(t, err)
	assert.Equal(t, "db", string(moved))

	// Second call is a no-op.
	require.NoError(t, MigrateLegacy(root))
}
