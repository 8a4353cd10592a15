// Package memory orchestrates the mnemon core: the atomic write pipeline
// (diff, insert, edge synthesis, effective-importance refresh, bounded
// pruning) and the lifecycle operations around it.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bissli/mnemon/internal/store"
	"github.com/bissli/mnemon/pkg/embedding"
	"github.com/bissli/mnemon/pkg/graph"
)

// Engine owns one open store plus the embedding adapter for the current
// command invocation.
type Engine struct {
	st    *store.Store
	embed *embedding.Adapter
	clock func() int64
}

// New creates an engine over an open store.
func New(st *store.Store, embed *embedding.Adapter) *Engine {
	return &Engine{
		st:    st,
		embed: embed,
		clock: func() int64 { return time.Now().UnixMilli() },
	}
}

// Store exposes the underlying store for read-only presentation layers.
func (e *Engine) Store() *store.Store { return e.st }

// RememberInput is the write-pipeline request.
type RememberInput struct {
	Content    string
	Category   store.Category
	Importance int
	Tags       []string
	Entities   []string
	Source     store.Source
	NoDiff     bool
}

// RememberResult is the canonical mutating-command payload.
type RememberResult struct {
	ID                  string              `json:"id"`
	Action              Action              `json:"action"`
	EdgesCreated        graph.Counts        `json:"edges_created"`
	SemanticCandidates  []SemanticCandidate `json:"semantic_candidates"`
	CausalCandidates    []CausalCandidate   `json:"causal_candidates"`
	QualityWarnings     []string            `json:"quality_warnings"`
	Embedded            bool                `json:"embedded"`
	EffectiveImportance float64             `json:"effective_importance"`
	AutoPruned          int                 `json:"auto_pruned"`
	ReplacedID          string              `json:"replaced_id,omitempty"`
}

func (in *RememberInput) validate() error {
	if in.Content == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if len(in.Content) > store.MaxContentLen {
		return fmt.Errorf("%w: content exceeds %d chars", ErrInvalidInput, store.MaxContentLen)
	}
	if !store.ValidCategory(in.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}
	if in.Importance < 1 || in.Importance > 5 {
		return fmt.Errorf("%w: importance must be 1-5, got %d", ErrInvalidInput, in.Importance)
	}
	if len(in.Tags) > store.MaxTags {
		return fmt.Errorf("%w: at most %d tags", ErrInvalidInput, store.MaxTags)
	}
	if !store.ValidSource(in.Source) {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidInput, in.Source)
	}
	return nil
}

// Remember runs the full write pipeline. Everything between the diff and
// the candidate surfacing is one transaction: the post-commit state is
// the union of all effects or none of them.
func (e *Engine) Remember(ctx context.Context, in RememberInput) (*RememberResult, error) {
	if in.Source == "" {
		in.Source = store.SourceUser
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := e.clock()
	entities := mergeEntities(in.Content, in.Entities)
	vec, embedded := e.embed.Embed(ctx, in.Content)

	res := &RememberResult{
		Action:             ActionAdded,
		Embedded:           embedded,
		SemanticCandidates: []SemanticCandidate{},
		CausalCandidates:   []CausalCandidate{},
		QualityWarnings:    qualityWarnings(in, entities),
	}

	if !in.NoDiff {
		active, err := e.st.Active()
		if err != nil {
			return nil, err
		}
		action, match := diffAgainstActive(active, in.Content, vec)
		if action == ActionSkipped {
			res.Action = ActionSkipped
			res.ID = match.ID
			res.EffectiveImportance = match.EffectiveImportance
			log.Debug().Str("id", match.ID).Msg("remember_skipped_duplicate")
			return res, nil
		}
		if action == ActionReplaced {
			res.Action = ActionReplaced
			res.ReplacedID = match.ID
		}
	}

	insight := &store.Insight{
		ID:         uuid.NewString(),
		Content:    in.Content,
		Category:   in.Category,
		Importance: in.Importance,
		Tags:       in.Tags,
		Entities:   entities,
		Source:     in.Source,
		Embedding:  vec,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	res.ID = insight.ID

	err := e.st.WithTx(func(tx *store.Tx) error {
		if res.ReplacedID != "" {
			if err := tx.SoftDelete(res.ReplacedID, now); err != nil {
				return err
			}
		}
		if err := tx.Insert(insight); err != nil {
			return err
		}

		counts, err := graph.Synthesize(tx, insight)
		if err != nil {
			return err
		}
		res.EdgesCreated = counts

		ei, err := refreshAllEI(tx, insight.ID, now)
		if err != nil {
			return err
		}
		res.EffectiveImportance = ei

		pruned, err := autoPrune(tx, now)
		if err != nil {
			return err
		}
		res.AutoPruned = len(pruned)
		for _, id := range pruned {
			log.Debug().Str("id", id).Msg("auto_pruned")
		}

		detail, _ := json.Marshal(map[string]any{
			"action": res.Action, "replaced_id": res.ReplacedID, "edges": res.EdgesCreated,
		})
		return tx.AppendOp("remember", insight.ID, string(detail), now)
	})
	if err != nil {
		return nil, err
	}

	// Advisory surfacing happens outside the transaction, read-only.
	res.SemanticCandidates, err = e.semanticCandidates(insight)
	if err != nil {
		return nil, err
	}
	res.CausalCandidates, err = e.causalCandidates(insight)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Link upserts one directed edge. Idempotent: relinking the same triple
// replaces weight and metadata.
func (e *Engine) Link(src, dst string, edgeType store.EdgeType, weight float64, metadata map[string]string) error {
	if src == dst {
		return fmt.Errorf("%w: self-loop %s", ErrInvalidInput, src)
	}
	if !store.ValidEdgeType(edgeType) {
		return fmt.Errorf("%w: unknown edge type %q", ErrInvalidInput, edgeType)
	}
	if weight < 0 || weight > 1 {
		return fmt.Errorf("%w: weight must be in [0,1], got %g", ErrInvalidInput, weight)
	}

	now := e.clock()
	return e.st.WithTx(func(tx *store.Tx) error {
		for _, id := range []string{src, dst} {
			in, err := tx.Get(id)
			if err != nil {
				return err
			}
			if in == nil || !in.Active() {
				return fmt.Errorf("%w: insight %s", ErrNotFound, id)
			}
		}
		if err := tx.UpsertEdge(&store.Edge{
			SourceID: src, TargetID: dst, Type: edgeType,
			Weight: weight, Metadata: metadata, CreatedAt: now,
		}); err != nil {
			return err
		}
		return tx.AppendOp("link", src, fmt.Sprintf(`{"target":%q,"type":%q}`, dst, edgeType), now)
	})
}

// Forget soft-deletes an insight; every incident edge is cascaded away.
func (e *Engine) Forget(id string) error {
	now := e.clock()
	return e.st.WithTx(func(tx *store.Tx) error {
		in, err := tx.Get(id)
		if err != nil {
			return err
		}
		if in == nil || !in.Active() {
			return fmt.Errorf("%w: insight %s", ErrNotFound, id)
		}
		if err := tx.SoftDelete(id, now); err != nil {
			return err
		}
		return tx.AppendOp("forget", id, "", now)
	})
}

// Boost is the gc keep path: access_count += 3, which unconditionally
// crosses the immunity threshold, then an EI refresh.
func (e *Engine) Boost(id string) (*store.Insight, error) {
	now := e.clock()
	var out *store.Insight
	err := e.st.WithTx(func(tx *store.Tx) error {
		in, err := tx.Get(id)
		if err != nil {
			return err
		}
		if in == nil || !in.Active() {
			return fmt.Errorf("%w: insight %s", ErrNotFound, id)
		}
		if err := tx.Boost(id, BoostDelta); err != nil {
			return err
		}
		if _, err := refreshAllEI(tx, id, now); err != nil {
			return err
		}
		if err := tx.AppendOp("gc", id, `{"mode":"keep"}`, now); err != nil {
			return err
		}
		out, err = tx.Get(id)
		return err
	})
	return out, err
}

// ReviewItem is one gc review row.
type ReviewItem struct {
	ID                  string  `json:"id"`
	Content             string  `json:"content"`
	EffectiveImportance float64 `json:"effective_importance"`
	Importance          int     `json:"importance"`
	AccessCount         int     `json:"access_count"`
	CreatedAt           int64   `json:"created_at"`
}

// GCReview lists low-EI, non-immune insights without mutating anything.
func (e *Engine) GCReview(threshold float64, limit int) ([]ReviewItem, error) {
	rows, err := e.st.LowestEI(threshold, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ReviewItem, 0, len(rows))
	for _, in := range rows {
		out = append(out, ReviewItem{
			ID:                  in.ID,
			Content:             in.Content,
			EffectiveImportance: in.EffectiveImportance,
			Importance:          in.Importance,
			AccessCount:         in.AccessCount,
			CreatedAt:           in.CreatedAt,
		})
	}
	return out, nil
}

// RelatedItem is one node reached by the related BFS.
type RelatedItem struct {
	ID      string         `json:"id"`
	Content string         `json:"content"`
	Hop     int            `json:"hop"`
	Via     store.EdgeType `json:"via"`
}

// Related walks the graph from id along one edge type (or all, when empty).
func (e *Engine) Related(id string, edgeType store.EdgeType, depth int) ([]RelatedItem, error) {
	if edgeType != "" && !store.ValidEdgeType(edgeType) {
		return nil, fmt.Errorf("%w: unknown edge type %q", ErrInvalidInput, edgeType)
	}
	in, err := e.st.Get(id)
	if err != nil {
		return nil, err
	}
	if in == nil || !in.Active() {
		return nil, fmt.Errorf("%w: insight %s", ErrNotFound, id)
	}

	visits, err := graph.BFS(e.st, id, edgeType, depth)
	if err != nil {
		return nil, err
	}
	out := make([]RelatedItem, 0, len(visits))
	for _, v := range visits {
		node, err := e.st.Get(v.ID)
		if err != nil {
			return nil, err
		}
		if node == nil || !node.Active() {
			continue
		}
		out = append(out, RelatedItem{ID: v.ID, Content: node.Content, Hop: v.Hop, Via: v.Via})
	}
	return out, nil
}

// Search is the cheap keyword scan, no graph traversal.
func (e *Engine) Search(term string, category store.Category, source store.Source, limit int) ([]*store.Insight, error) {
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrInvalidInput)
	}
	if category != "" && !store.ValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	if source != "" && !store.ValidSource(source) {
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidInput, source)
	}
	if limit <= 0 {
		limit = 10
	}
	return e.st.SearchActive(term, category, source, limit)
}

// Status aggregates store counters.
type Status struct {
	Store           string                 `json:"store"`
	Path            string                 `json:"path"`
	Active          int                    `json:"active"`
	Deleted         int                    `json:"deleted"`
	ByCategory      map[store.Category]int `json:"by_category"`
	EdgesByType     map[store.EdgeType]int `json:"edges_by_type"`
	OpLogSize       int                    `json:"oplog_size"`
	Embedded        int                    `json:"embedded"`
	OllamaAvailable bool                   `json:"ollama_available"`
	PruneHorizon    []ReviewItem           `json:"prune_horizon"`
}

// StatusReport gathers the status payload, probing the embedding adapter.
func (e *Engine) StatusReport(ctx context.Context, storeName string) (*Status, error) {
	st := &Status{Store: storeName, Path: e.st.Path()}
	var err error
	if st.Active, err = e.st.ActiveCount(); err != nil {
		return nil, err
	}
	if st.Deleted, err = e.st.DeletedCount(); err != nil {
		return nil, err
	}
	if st.ByCategory, err = e.st.CountByCategory(); err != nil {
		return nil, err
	}
	if st.EdgesByType, err = e.st.EdgeCountByType(); err != nil {
		return nil, err
	}
	if st.OpLogSize, err = e.st.OpLogSize(); err != nil {
		return nil, err
	}
	if st.Embedded, err = e.st.EmbeddedCount(); err != nil {
		return nil, err
	}
	st.OllamaAvailable = e.embed.Available(ctx)
	if st.PruneHorizon, err = e.GCReview(1.0, 5); err != nil {
		return nil, err
	}
	return st, nil
}

// EmbedInsight (re)embeds one insight. Reports false when the adapter is
// unavailable.
func (e *Engine) EmbedInsight(ctx context.Context, id string) (bool, error) {
	in, err := e.st.Get(id)
	if err != nil {
		return false, err
	}
	if in == nil || !in.Active() {
		return false, fmt.Errorf("%w: insight %s", ErrNotFound, id)
	}
	vec, ok := e.embed.Embed(ctx, in.Content)
	if !ok {
		return false, nil
	}
	now := e.clock()
	err = e.st.WithTx(func(tx *store.Tx) error {
		if err := tx.SetEmbedding(id, vec, now); err != nil {
			return err
		}
		return tx.AppendOp("embed", id, "", now)
	})
	return err == nil, err
}

// EmbedBackfill embeds every active insight missing a vector. Returns
// (embedded, missing-before).
func (e *Engine) EmbedBackfill(ctx context.Context) (int, int, error) {
	missing, err := e.st.MissingEmbedding()
	if err != nil {
		return 0, 0, err
	}
	done := 0
	for _, in := range missing {
		vec, ok := e.embed.Embed(ctx, in.Content)
		if !ok {
			continue
		}
		now := e.clock()
		err := e.st.WithTx(func(tx *store.Tx) error {
			return tx.SetEmbedding(in.ID, vec, now)
		})
		if err != nil {
			return done, len(missing), err
		}
		done++
	}
	return done, len(missing), nil
}
