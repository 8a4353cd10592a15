package store

import (
	"fmt"
)

// RecentOps returns the newest op-log entries, most recent first.
func (s *Store) RecentOps(limit int) ([]*OpLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, operation, COALESCE(insight_id, ''), COALESCE(detail, ''), created_at
		FROM oplog ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []*OpLogEntry
	for rows.Next() {
		var e OpLogEntry
		if err := rows.Scan(&e.ID, &e.Operation, &e.InsightID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// OpLogSize returns the number of op-log entries.
func (s *Store) OpLogSize() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM oplog`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return n, nil
}

// AppendOp records a semantic operation and trims the log to OpLogCap,
// oldest first.
func (t *Tx) AppendOp(operation, insightID, detail string, now int64) error {
	var insight any
	if insightID != "" {
		insight = insightID
	}
	if _, err := t.tx.Exec(`
		INSERT INTO oplog (operation, insight_id, detail, created_at)
		VALUES (?, ?, ?, ?)`, operation, insight, detail, now); err != nil {
		return fmt.Errorf("%w: append oplog: %v", ErrStorage, err)
	}

	if _, err := t.tx.Exec(`
		DELETE FROM oplog WHERE id IN (
			SELECT id FROM oplog ORDER BY id DESC LIMIT -1 OFFSET ?
		)`, OpLogCap); err != nil {
		return fmt.Errorf("%w: trim oplog: %v", ErrStorage, err)
	}
	return nil
}
