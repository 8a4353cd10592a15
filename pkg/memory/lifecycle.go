package memory

import (
	"math"

	"github.com/bissli/mnemon/internal/store"
)

// Lifecycle constants: retention ceiling, prune batch, immunity thresholds
// and the decay half-life.
const (
	PruneActiveMax = 1000
	PruneBatch     = 10

	ImmuneImportance  = 4
	ImmuneAccessCount = 3
	BoostDelta        = 3

	DecayHalfLifeDays = 30.0
)

// baseWeight maps declared importance onto the EI base term.
func baseWeight(importance int) float64 {
	switch importance {
	case 5:
		return 1.0
	case 4:
		return 0.8
	case 3:
		return 0.5
	case 2:
		return 0.3
	default:
		return 0.15
	}
}

// EffectiveImportance computes the retention score for an insight given
// its incident edge count. Deterministic in its inputs.
//
//	EI = base(importance) * max(1, ln(1+access)) * 0.5^(days/30) * (1 + 0.1*min(edges,5))
//
// days counts from last access, or creation when never accessed.
func EffectiveImportance(in *store.Insight, edgeCount int, nowMillis int64) float64 {
	access := math.Max(1.0, math.Log(1.0+float64(in.AccessCount)))

	ref := in.CreatedAt
	if in.LastAccessedAt != nil {
		ref = *in.LastAccessedAt
	}
	days := float64(nowMillis-ref) / (1000.0 * 86400.0)
	if days < 0 {
		days = 0
	}
	decay := math.Pow(0.5, days/DecayHalfLifeDays)

	edges := float64(edgeCount)
	if edges > 5 {
		edges = 5
	}
	edgeFactor := 1.0 + 0.1*edges

	return baseWeight(in.Importance) * access * decay * edgeFactor
}

// Immune reports whether the insight is exempt from auto-pruning.
func Immune(in *store.Insight) bool {
	return in.Importance >= ImmuneImportance || in.AccessCount >= ImmuneAccessCount
}

// refreshAllEI recomputes effective importance for every active insight
// inside the transaction. Returns the fresh value for wantID.
func refreshAllEI(tx *store.Tx, wantID string, now int64) (float64, error) {
	active, err := tx.Active()
	if err != nil {
		return 0, err
	}
	edgeCounts, err := tx.EdgeCountsIncident()
	if err != nil {
		return 0, err
	}

	var wanted float64
	for _, in := range active {
		ei := EffectiveImportance(in, edgeCounts[in.ID], now)
		if err := tx.SetEffectiveImportance(in.ID, ei); err != nil {
			return 0, err
		}
		if in.ID == wantID {
			wanted = ei
		}
	}
	return wanted, nil
}

// autoPrune soft-deletes up to PruneBatch of the lowest-EI non-immune
// insights when the active count exceeds PruneActiveMax. Cascade fires
// per deletion. Returns the ids pruned.
func autoPrune(tx *store.Tx, now int64) ([]string, error) {
	count, err := tx.ActiveCount()
	if err != nil {
		return nil, err
	}
	if count <= PruneActiveMax {
		return nil, nil
	}

	over := count - PruneActiveMax
	if over > PruneBatch {
		over = PruneBatch
	}
	candidates, err := tx.PruneCandidates(over)
	if err != nil {
		return nil, err
	}

	var pruned []string
	for _, in := range candidates {
		if err := tx.SoftDelete(in.ID, now); err != nil {
			return nil, err
		}
		pruned = append(pruned, in.ID)
	}
	return pruned, nil
}
