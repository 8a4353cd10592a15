// Package graph synthesizes the four typed edge layers around a newly
// inserted insight and walks the resulting multigraph.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bissli/mnemon/internal/store"
	"github.com/bissli/mnemon/pkg/embedding"
	"github.com/bissli/mnemon/pkg/extraction"
)

// Tunables for the four builders. The semantic pair is split on purpose:
// auto-links demand near-duplication, surfacing starts far lower.
const (
	ProximityWindowHours = 24.0
	ProximityEdgeCap     = 10

	EntityPeersPerEntity = 5
	EntityEdgeCap        = 50

	CausalScanLimit  = 10
	CausalOverlapMin = 0.15

	SemanticAutoLinkMin    = 0.80
	SemanticCandidateMin   = 0.40
	SemanticAutoLinkCap    = 3
	SemanticFallbackFloor  = 0.10
	SemanticFallbackStrong = 0.70
)

// causalKeywords maps trigger phrases to the causal sub-type recorded in
// edge metadata. Scanned lowercased; Chinese triggers included.
var causalKeywords = []struct {
	keyword string
	subType string
}{
	{"because", "causes"},
	{"due to", "causes"},
	{"caused by", "causes"},
	{"as a result", "causes"},
	{"therefore", "causes"},
	{"consequently", "causes"},
	{"leads to", "causes"},
	{"results in", "causes"},
	{"so that", "enables"},
	{"enables", "enables"},
	{"allows", "enables"},
	{"prevents", "prevents"},
	{"avoids", "prevents"},
	{"因为", "causes"},
	{"由于", "causes"},
	{"导致", "causes"},
	{"所以", "causes"},
}

// Counts reports edge rows created per layer during one synthesis pass.
type Counts struct {
	Temporal int `json:"temporal"`
	Entity   int `json:"entity"`
	Causal   int `json:"causal"`
	Semantic int `json:"semantic"`
}

// Synthesize runs all four builders for the freshly inserted insight.
// Must be called inside the write transaction, after the insert.
func Synthesize(tx *store.Tx, in *store.Insight) (Counts, error) {
	var counts Counts

	active, err := tx.RecentActive(in.ID, 0x7fffffff)
	if err != nil {
		return counts, err
	}

	n, err := buildTemporal(tx, in, active)
	if err != nil {
		return counts, err
	}
	counts.Temporal = n

	n, err = buildEntity(tx, in)
	if err != nil {
		return counts, err
	}
	counts.Entity = n

	n, err = buildCausal(tx, in, active)
	if err != nil {
		return counts, err
	}
	counts.Causal = n

	n, err = buildSemantic(tx, in, active)
	if err != nil {
		return counts, err
	}
	counts.Semantic = n

	return counts, nil
}

func insertBidirectional(tx *store.Tx, a, b string, t store.EdgeType, weight float64, meta map[string]string, now int64) (int, error) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		e := &store.Edge{
			SourceID:  pair[0],
			TargetID:  pair[1],
			Type:      t,
			Weight:    weight,
			Metadata:  meta,
			CreatedAt: now,
		}
		if err := tx.UpsertEdge(e); err != nil {
			return 0, err
		}
	}
	return 2, nil
}

// buildTemporal links the new insight into the time axis: a backbone edge
// to the latest same-source insight, and proximity edges to anything
// created within the last 24 hours.
func buildTemporal(tx *store.Tx, in *store.Insight, active []*store.Insight) (int, error) {
	created := 0
	backboneID := ""

	prev, err := tx.LatestBySource(in.Source, in.ID)
	if err != nil {
		return 0, err
	}
	if prev != nil {
		hours := hoursBetween(in.CreatedAt, prev.CreatedAt)
		n, err := insertBidirectional(tx, in.ID, prev.ID, store.EdgeTemporal, 1.0, map[string]string{
			"sub_type":   "backbone",
			"hours_diff": formatHours(hours),
		}, in.CreatedAt)
		if err != nil {
			return created, err
		}
		created += n
		backboneID = prev.ID
	}

	proximity := 0
	for _, other := range active {
		if proximity >= ProximityEdgeCap {
			break
		}
		if other.ID == in.ID || other.ID == backboneID {
			continue
		}
		hours := hoursBetween(in.CreatedAt, other.CreatedAt)
		if hours > ProximityWindowHours {
			continue
		}
		n, err := insertBidirectional(tx, in.ID, other.ID, store.EdgeTemporal, 1.0/(1.0+hours), map[string]string{
			"sub_type":   "proximity",
			"hours_diff": formatHours(hours),
		}, in.CreatedAt)
		if err != nil {
			return created, err
		}
		created += n
		proximity++
	}

	return created, nil
}

// buildEntity links the new insight to up to 5 peers per shared entity,
// bidirectionally, weight 1.0.
func buildEntity(tx *store.Tx, in *store.Insight) (int, error) {
	created := 0
	linked := map[string]bool{}

	for _, entity := range in.Entities {
		peers, err := tx.ActiveWithEntity(entity, in.ID, EntityPeersPerEntity)
		if err != nil {
			return created, err
		}
		for _, peer := range peers {
			if created >= EntityEdgeCap {
				return created, nil
			}
			if linked[peer.ID] {
				continue
			}
			linked[peer.ID] = true
			n, err := insertBidirectional(tx, in.ID, peer.ID, store.EdgeEntity, 1.0,
				map[string]string{"entity": entity}, in.CreatedAt)
			if err != nil {
				return created, err
			}
			created += n
		}
	}
	return created, nil
}

// CausalSignal inspects text for a causal trigger; returns the matched
// keyword and its sub-type.
func CausalSignal(content string) (keyword, subType string, ok bool) {
	lower := strings.ToLower(content)
	for _, ck := range causalKeywords {
		if strings.Contains(lower, ck.keyword) {
			return ck.keyword, ck.subType, true
		}
	}
	return "", "", false
}

// buildCausal scans the most recent insights for token overlap plus a
// causal trigger. The keyword-bearing side points at its cause.
func buildCausal(tx *store.Tx, in *store.Insight, active []*store.Insight) (int, error) {
	created := 0
	newTokens := extraction.Tokens(in.Content)
	newKeyword, newSub, newHas := CausalSignal(in.Content)

	scanned := 0
	for _, cand := range active {
		if cand.ID == in.ID {
			continue
		}
		if scanned >= CausalScanLimit {
			break
		}
		scanned++

		overlap := extraction.OverlapOfSmaller(newTokens, extraction.Tokens(cand.Content))
		if overlap < CausalOverlapMin {
			continue
		}

		var src, dst, keyword, subType string
		if newHas {
			src, dst, keyword, subType = in.ID, cand.ID, newKeyword, newSub
		} else if kw, sub, ok := CausalSignal(cand.Content); ok {
			src, dst, keyword, subType = cand.ID, in.ID, kw, sub
		} else {
			continue
		}

		e := &store.Edge{
			SourceID: src,
			TargetID: dst,
			Type:     store.EdgeCausal,
			Weight:   overlap,
			Metadata: map[string]string{"sub_type": subType, "reason": keyword},
			CreatedAt: in.CreatedAt,
		}
		if err := tx.UpsertEdge(e); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// buildSemantic auto-links near-duplicate meaning: cosine when both sides
// carry vectors, a much higher token-overlap bar otherwise.
func buildSemantic(tx *store.Tx, in *store.Insight, active []*store.Insight) (int, error) {
	type scored struct {
		id     string
		weight float64
	}
	var picks []scored

	for _, cand := range active {
		if cand.ID == in.ID {
			continue
		}
		if len(in.Embedding) > 0 && len(cand.Embedding) > 0 {
			cos := embedding.Cosine(in.Embedding, cand.Embedding)
			if cos >= SemanticAutoLinkMin {
				picks = append(picks, scored{cand.ID, cos})
			}
			continue
		}
		// Fallback: one side lacks a vector. Token overlap must clear a
		// cosine-grade bar, not just the surfacing floor.
		ov := extraction.Overlap(extraction.Tokens(in.Content), extraction.Tokens(cand.Content))
		if ov > SemanticFallbackFloor && ov >= SemanticFallbackStrong {
			picks = append(picks, scored{cand.ID, ov})
		}
	}

	sort.Slice(picks, func(i, j int) bool {
		if picks[i].weight != picks[j].weight {
			return picks[i].weight > picks[j].weight
		}
		return picks[i].id < picks[j].id
	})
	if len(picks) > SemanticAutoLinkCap {
		picks = picks[:SemanticAutoLinkCap]
	}

	created := 0
	for _, p := range picks {
		n, err := insertBidirectional(tx, in.ID, p.id, store.EdgeSemantic, p.weight,
			map[string]string{"cosine": fmt.Sprintf("%.4f", p.weight)}, in.CreatedAt)
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

func hoursBetween(aMillis, bMillis int64) float64 {
	diff := aMillis - bMillis
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) / (1000.0 * 3600.0)
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.2f", h)
}
