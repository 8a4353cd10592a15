package memory

import (
	"context"
	"fmt"

	"github.com/bissli/mnemon/internal/store"
	"github.com/bissli/mnemon/pkg/extraction"
	"github.com/bissli/mnemon/pkg/recall"
)

// RecallQuery is the smart-recall request.
type RecallQuery struct {
	Query          string
	Limit          int
	IntentOverride string
	Category       store.Category
	Source         store.Source
	Basic          bool
}

// RecallMeta describes how a recall was answered.
type RecallMeta struct {
	Intent   recall.Intent `json:"intent"`
	Embedded bool          `json:"embedded"`
	Count    int           `json:"count"`
	Limit    int           `json:"limit"`
}

// RecallResponse pairs meta with the ranked results.
type RecallResponse struct {
	Meta    RecallMeta      `json:"meta"`
	Results []recall.Result `json:"results"`
}

// Recall runs the read pipeline, then records the access side effects:
// every returned insight gets access_count+1, a fresh last_accessed_at
// and an inline EI refresh. Edges are never mutated by recall.
func (e *Engine) Recall(ctx context.Context, q RecallQuery) (*RecallResponse, error) {
	if q.Query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	if q.Category != "" && !store.ValidCategory(q.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, q.Category)
	}
	if q.Source != "" && !store.ValidSource(q.Source) {
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidInput, q.Source)
	}

	intent := recall.Detect(q.Query)
	if q.IntentOverride != "" {
		var err error
		if intent, err = recall.ParseOverride(q.IntentOverride); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	active, err := e.st.Active()
	if err != nil {
		return nil, err
	}
	edges, err := e.st.AllEdges()
	if err != nil {
		return nil, err
	}
	adjacency := make(map[string][]*store.Edge)
	for _, edge := range edges {
		adjacency[edge.SourceID] = append(adjacency[edge.SourceID], edge)
	}

	qvec, embedded := e.embed.Embed(ctx, q.Query)

	results := recall.Run(recall.Input{
		Query:    q.Query,
		Vec:      qvec,
		Entities: extraction.Extract(q.Query, nil),
		Intent:   intent,
		Limit:    q.Limit,
		Category: q.Category,
		Source:   q.Source,
		Basic:    q.Basic,
	}, active, adjacency)

	if len(results) > 0 {
		now := e.clock()
		err = e.st.WithTx(func(tx *store.Tx) error {
			for _, r := range results {
				if err := tx.Touch(r.Insight.ID, now); err != nil {
					return err
				}
				touched, err := tx.Get(r.Insight.ID)
				if err != nil {
					return err
				}
				edgeCount, err := tx.EdgeCountIncident(r.Insight.ID)
				if err != nil {
					return err
				}
				ei := EffectiveImportance(touched, edgeCount, now)
				if err := tx.SetEffectiveImportance(r.Insight.ID, ei); err != nil {
					return err
				}
			}
			detail := fmt.Sprintf(`{"query":%q,"intent":%q,"results":%d}`, q.Query, intent, len(results))
			return tx.AppendOp("recall", "", detail, now)
		})
		if err != nil {
			return nil, err
		}
	}

	if results == nil {
		results = []recall.Result{}
	}
	return &RecallResponse{
		Meta: RecallMeta{
			Intent:   intent,
			Embedded: embedded,
			Count:    len(results),
			Limit:    q.Limit,
		},
		Results: results,
	}, nil
}
