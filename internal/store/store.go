// SQLite access goes through ncruces/go-sqlite3's database/sql driver.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rs/zerolog/log"

	"github.com/bissli/mnemon/pkg/embedding"
)

// ErrStorage wraps failures of the durable layer. The enclosing write
// transaction is rolled back whenever it surfaces.
var ErrStorage = errors.New("storage error")

// Store is the single-store durable layer. Reads take the shared lock;
// the write pipeline serializes on the exclusive lock via WithTx.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS insights (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    category TEXT NOT NULL,
    importance INTEGER NOT NULL,
    tags TEXT NOT NULL DEFAULT '[]',
    entities TEXT NOT NULL DEFAULT '[]',
    source TEXT NOT NULL DEFAULT 'user',
    embedding BLOB,
    access_count INTEGER NOT NULL DEFAULT 0,
    last_accessed_at INTEGER,
    effective_importance REAL NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    deleted_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_insights_active ON insights(created_at) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_insights_source ON insights(source) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS edges (
    source_id TEXT NOT NULL,
    target_id TEXT NOT NULL,
    edge_type TEXT NOT NULL,
    weight REAL NOT NULL,
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL,
    PRIMARY KEY (source_id, target_id, edge_type)
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);

CREATE TABLE IF NOT EXISTS oplog (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    operation TEXT NOT NULL,
    insight_id TEXT,
    detail TEXT,
    created_at INTEGER NOT NULL
);
`

// Open opens (or creates) the store at path with WAL journaling.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create store dir: %v", ErrStorage, err)
		}
	}

	dsn := "file:" + path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=synchronous(normal)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrStorage, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", ErrStorage, err)
	}

	return &Store{db: db, path: path}, nil
}

// MigrateLegacy performs the one-time move of <dataRoot>/mnemon.db into
// <dataRoot>/data/default/mnemon.db. Call before Open.
func MigrateLegacy(dataRoot string) error {
	legacy := filepath.Join(dataRoot, "mnemon.db")
	target := filepath.Join(dataRoot, "data", "default", "mnemon.db")

	if _, err := os.Stat(legacy); err != nil {
		return nil
	}
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("%w: migrate legacy store: %v", ErrStorage, err)
	}
	if err := os.Rename(legacy, target); err != nil {
		return fmt.Errorf("%w: migrate legacy store: %v", ErrStorage, err)
	}
	log.Info().Str("from", legacy).Str("to", target).Msg("legacy_store_migrated")
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Tx is the handle passed to WithTx callbacks. All mutations of the write
// pipeline go through it so the post-commit state is all-or-nothing.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a serialized write transaction. Any error rolls
// the transaction back with no partial effects.
func (s *Store) WithTx(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dbtx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStorage, err)
	}
	if err := fn(&Tx{tx: dbtx}); err != nil {
		dbtx.Rollback()
		return err
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorage, err)
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx so row helpers serve both
// the read paths and the transaction envelope.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

const insightCols = `id, content, category, importance, tags, entities, source, embedding,
	access_count, last_accessed_at, effective_importance, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInsight(r rowScanner) (*Insight, error) {
	var in Insight
	var tagsJSON, entitiesJSON string
	var emb []byte
	var lastAccessed, deletedAt sql.NullInt64

	err := r.Scan(&in.ID, &in.Content, &in.Category, &in.Importance,
		&tagsJSON, &entitiesJSON, &in.Source, &emb,
		&in.AccessCount, &lastAccessed, &in.EffectiveImportance,
		&in.CreatedAt, &in.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &in.Tags); err != nil {
		in.Tags = nil
	}
	if err := json.Unmarshal([]byte(entitiesJSON), &in.Entities); err != nil {
		in.Entities = nil
	}
	in.Embedding = embedding.DecodeVector(emb)
	if lastAccessed.Valid {
		in.LastAccessedAt = &lastAccessed.Int64
	}
	if deletedAt.Valid {
		in.DeletedAt = &deletedAt.Int64
	}
	return &in, nil
}

func queryInsights(q querier, query string, args ...any) ([]*Insight, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []*Insight
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan insight: %v", ErrStorage, err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func getInsight(q querier, id string) (*Insight, error) {
	in, err := scanInsight(q.QueryRow(
		`SELECT `+insightCols+` FROM insights WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return in, nil
}

func scanEdges(q querier, query string, args ...any) ([]*Edge, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []*Edge
	for rows.Next() {
		var e Edge
		var metaJSON string
		if err := rows.Scan(&e.SourceID, &e.TargetID, &e.Type, &e.Weight, &metaJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan edge: %v", ErrStorage, err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &e.Metadata); err != nil {
			e.Metadata = nil
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
