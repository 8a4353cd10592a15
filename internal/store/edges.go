package store

import (
	"encoding/json"
	"fmt"
)

// EdgesFrom returns outgoing edges of id, optionally narrowed to one type.
func (s *Store) EdgesFrom(id string, edgeType EdgeType) ([]*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if edgeType != "" {
		return scanEdges(s.db,
			`SELECT source_id, target_id, edge_type, weight, metadata, created_at
			FROM edges WHERE source_id = ? AND edge_type = ?`, id, edgeType)
	}
	return scanEdges(s.db,
		`SELECT source_id, target_id, edge_type, weight, metadata, created_at
		FROM edges WHERE source_id = ?`, id)
}

// AllEdges returns every stored edge.
func (s *Store) AllEdges() ([]*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanEdges(s.db,
		`SELECT source_id, target_id, edge_type, weight, metadata, created_at FROM edges`)
}

// EdgeCountByType returns edge counts keyed by type.
func (s *Store) EdgeCountByType() (map[EdgeType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT edge_type, COUNT(*) FROM edges GROUP BY edge_type`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer rows.Close()

	out := make(map[EdgeType]int)
	for rows.Next() {
		var t EdgeType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		out[t] = n
	}
	return out, rows.Err()
}

// EdgeCountIncident returns the number of edges touching id (as source or
// target), for the EI edge factor.
func (s *Store) EdgeCountIncident(id string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return edgeCountIncident(s.db, id)
}

func edgeCountIncident(q querier, id string) (int, error) {
	var n int
	err := q.QueryRow(
		`SELECT COUNT(*) FROM edges WHERE source_id = ? OR target_id = ?`, id, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Transaction-scoped edge operations
// ---------------------------------------------------------------------------

// UpsertEdge inserts one directed edge, replacing weight and metadata when
// the (source, target, type) row already exists.
func (t *Tx) UpsertEdge(e *Edge) error {
	meta := e.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("%w: marshal metadata: %v", ErrStorage, err)
	}

	_, err = t.tx.Exec(`
		INSERT INTO edges (source_id, target_id, edge_type, weight, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, target_id, edge_type) DO UPDATE SET
			weight = excluded.weight,
			metadata = excluded.metadata
	`, e.SourceID, e.TargetID, e.Type, e.Weight, string(metaJSON), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: upsert edge: %v", ErrStorage, err)
	}
	return nil
}

// DeleteEdgesIncident hard-deletes every edge touching id.
func (t *Tx) DeleteEdgesIncident(id string) error {
	_, err := t.tx.Exec(`DELETE FROM edges WHERE source_id = ? OR target_id = ?`, id, id)
	if err != nil {
		return fmt.Errorf("%w: cascade edges: %v", ErrStorage, err)
	}
	return nil
}

// EdgeCountIncident counts edges touching id inside the transaction.
func (t *Tx) EdgeCountIncident(id string) (int, error) {
	return edgeCountIncident(t.tx, id)
}

// EdgesFrom returns outgoing edges of id inside the transaction.
func (t *Tx) EdgesFrom(id string) ([]*Edge, error) {
	return scanEdges(t.tx,
		`SELECT source_id, target_id, edge_type, weight, metadata, created_at
		FROM edges WHERE source_id = ?`, id)
}

// EdgeCountsIncident returns, for every insight appearing in the edges
// table, the number of edges touching it. One aggregate query so the EI
// refresh does not fan out per row.
func (t *Tx) EdgeCountsIncident() (map[string]int, error) {
	rows, err := t.tx.Query(`
		SELECT id, SUM(n) FROM (
			SELECT source_id AS id, COUNT(*) AS n FROM edges GROUP BY source_id
			UNION ALL
			SELECT target_id AS id, COUNT(*) AS n FROM edges GROUP BY target_id
		) GROUP BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		out[id] = n
	}
	return out, rows.Err()
}
