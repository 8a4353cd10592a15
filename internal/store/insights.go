package store

import (
	"encoding/json"
	"fmt"

	"github.com/bissli/mnemon/pkg/embedding"
)

// Get retrieves an insight by id, active or not. Returns nil when absent.
func (s *Store) Get(id string) (*Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getInsight(s.db, id)
}

// Active returns all active insights, newest first.
func (s *Store) Active() ([]*Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryInsights(s.db,
		`SELECT `+insightCols+` FROM insights WHERE deleted_at IS NULL ORDER BY created_at DESC`)
}

// ActiveCount returns the number of active insights.
func (s *Store) ActiveCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return activeCount(s.db)
}

// DeletedCount returns the number of soft-deleted insights.
func (s *Store) DeletedCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM insights WHERE deleted_at IS NOT NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return n, nil
}

// CountByCategory returns active insight counts keyed by category.
func (s *Store) CountByCategory() (map[Category]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT category, COUNT(*) FROM insights WHERE deleted_at IS NULL GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer rows.Close()

	out := make(map[Category]int)
	for rows.Next() {
		var c Category
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		out[c] = n
	}
	return out, rows.Err()
}

// EmbeddedCount returns the number of active insights carrying a vector.
func (s *Store) EmbeddedCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM insights WHERE deleted_at IS NULL AND embedding IS NOT NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return n, nil
}

// MissingEmbedding returns active insights with no stored vector.
func (s *Store) MissingEmbedding() ([]*Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryInsights(s.db,
		`SELECT `+insightCols+` FROM insights WHERE deleted_at IS NULL AND embedding IS NULL ORDER BY created_at`)
}

// SearchActive scans active insights whose content, tags or entities contain
// term (case-insensitive), optionally narrowed by category and source.
func (s *Store) SearchActive(term string, category Category, source Source, limit int) ([]*Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + insightCols + ` FROM insights
		WHERE deleted_at IS NULL
		AND (content LIKE '%' || ?1 || '%' COLLATE NOCASE
		     OR tags LIKE '%' || ?1 || '%' COLLATE NOCASE
		     OR entities LIKE '%' || ?1 || '%' COLLATE NOCASE)`
	args := []any{term}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if source != "" {
		query += ` AND source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)
	return queryInsights(s.db, query, args...)
}

// LowestEI returns the active, non-immune insights with effective importance
// below threshold, ascending, capped at limit. Immunity is importance >= 4
// or access_count >= 3.
func (s *Store) LowestEI(threshold float64, limit int) ([]*Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryInsights(s.db,
		`SELECT `+insightCols+` FROM insights
		WHERE deleted_at IS NULL AND importance < 4 AND access_count < 3
		AND effective_importance < ?
		ORDER BY effective_importance ASC LIMIT ?`, threshold, limit)
}

func activeCount(q querier) (int, error) {
	var n int
	if err := q.QueryRow(`SELECT COUNT(*) FROM insights WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Transaction-scoped insight operations
// ---------------------------------------------------------------------------

// Get retrieves an insight inside the transaction.
func (t *Tx) Get(id string) (*Insight, error) {
	return getInsight(t.tx, id)
}

// Insert stores a new insight row.
func (t *Tx) Insert(in *Insight) error {
	tagsJSON, err := json.Marshal(emptyIfNil(in.Tags))
	if err != nil {
		return fmt.Errorf("%w: marshal tags: %v", ErrStorage, err)
	}
	entitiesJSON, err := json.Marshal(emptyIfNil(in.Entities))
	if err != nil {
		return fmt.Errorf("%w: marshal entities: %v", ErrStorage, err)
	}

	_, err = t.tx.Exec(`
		INSERT INTO insights (id, content, category, importance, tags, entities, source,
			embedding, access_count, last_accessed_at, effective_importance,
			created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`, in.ID, in.Content, in.Category, in.Importance, string(tagsJSON), string(entitiesJSON),
		in.Source, embedding.EncodeVector(in.Embedding), in.AccessCount,
		nullableInt(in.LastAccessedAt), in.EffectiveImportance, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert insight: %v", ErrStorage, err)
	}
	return nil
}

// SoftDelete marks the insight deleted and hard-deletes every incident edge
// (cascade).
func (t *Tx) SoftDelete(id string, now int64) error {
	res, err := t.tx.Exec(
		`UPDATE insights SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("%w: soft delete: %v", ErrStorage, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: soft delete: no active row %s", ErrStorage, id)
	}
	return t.DeleteEdgesIncident(id)
}

// Touch records a retrieval hit: bump access_count and last_accessed_at.
func (t *Tx) Touch(id string, now int64) error {
	_, err := t.tx.Exec(
		`UPDATE insights SET access_count = access_count + 1, last_accessed_at = ? WHERE id = ?`,
		now, id)
	if err != nil {
		return fmt.Errorf("%w: touch: %v", ErrStorage, err)
	}
	return nil
}

// Boost adds delta to access_count without changing last_accessed_at.
func (t *Tx) Boost(id string, delta int) error {
	_, err := t.tx.Exec(
		`UPDATE insights SET access_count = access_count + ? WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("%w: boost: %v", ErrStorage, err)
	}
	return nil
}

// SetEffectiveImportance stores a freshly computed EI value.
func (t *Tx) SetEffectiveImportance(id string, ei float64) error {
	_, err := t.tx.Exec(`UPDATE insights SET effective_importance = ? WHERE id = ?`, ei, id)
	if err != nil {
		return fmt.Errorf("%w: set ei: %v", ErrStorage, err)
	}
	return nil
}

// SetEmbedding replaces the stored vector for id.
func (t *Tx) SetEmbedding(id string, vec []float64, now int64) error {
	_, err := t.tx.Exec(`UPDATE insights SET embedding = ?, updated_at = ? WHERE id = ?`,
		embedding.EncodeVector(vec), now, id)
	if err != nil {
		return fmt.Errorf("%w: set embedding: %v", ErrStorage, err)
	}
	return nil
}

// Active returns all active insights, newest first, inside the transaction
// (sees rows inserted earlier in the same transaction).
func (t *Tx) Active() ([]*Insight, error) {
	return queryInsights(t.tx,
		`SELECT `+insightCols+` FROM insights WHERE deleted_at IS NULL ORDER BY created_at DESC`)
}

// RecentActive returns up to limit active insights, newest first, excluding
// excludeID.
func (t *Tx) RecentActive(excludeID string, limit int) ([]*Insight, error) {
	return queryInsights(t.tx,
		`SELECT `+insightCols+` FROM insights
		WHERE deleted_at IS NULL AND id != ?
		ORDER BY created_at DESC LIMIT ?`, excludeID, limit)
}

// LatestBySource returns the most recent active insight with the given
// source, excluding excludeID. Nil when none exists.
func (t *Tx) LatestBySource(source Source, excludeID string) (*Insight, error) {
	rows, err := queryInsights(t.tx,
		`SELECT `+insightCols+` FROM insights
		WHERE deleted_at IS NULL AND source = ? AND id != ?
		ORDER BY created_at DESC LIMIT 1`, source, excludeID)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// ActiveWithEntity returns up to limit active insights whose entity set
// contains entity (exact member match on the serialized set).
func (t *Tx) ActiveWithEntity(entity, excludeID string, limit int) ([]*Insight, error) {
	member, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return queryInsights(t.tx,
		`SELECT `+insightCols+` FROM insights
		WHERE deleted_at IS NULL AND id != ? AND instr(entities, ?) > 0
		ORDER BY created_at DESC LIMIT ?`, excludeID, string(member), limit)
}

// ActiveCount returns the number of active insights inside the transaction.
func (t *Tx) ActiveCount() (int, error) {
	return activeCount(t.tx)
}

// PruneCandidates returns active non-immune insights in ascending EI order.
func (t *Tx) PruneCandidates(limit int) ([]*Insight, error) {
	return queryInsights(t.tx,
		`SELECT `+insightCols+` FROM insights
		WHERE deleted_at IS NULL AND importance < 4 AND access_count < 3
		ORDER BY effective_importance ASC LIMIT ?`, limit)
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func nullableInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
