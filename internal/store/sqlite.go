// Package store provides SQLite persistence for the three memory layers and
// the router's learned state.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// SQLiteStore holds the four collections: identity_facts, experiences,
// knowledge, and router state (weights + corrections).
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS identity_facts (
		id                 TEXT PRIMARY KEY,
		key                TEXT NOT NULL,
		value              TEXT NOT NULL,
		category           TEXT NOT NULL DEFAULT 'preference',
		confidence         REAL NOT NULL,
		confirmation_count INTEGER NOT NULL DEFAULT 1,
		source             TEXT NOT NULL DEFAULT 'explicit',
		last_confirmed     TEXT NOT NULL,
		created_at         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_identity_key ON identity_facts(key, confidence DESC);

	CREATE TABLE IF NOT EXISTS experiences (
		id                  TEXT PRIMARY KEY,
		content             TEXT NOT NULL,
		context             TEXT NOT NULL DEFAULT 'general',
		role                TEXT NOT NULL DEFAULT 'user',
		importance          REAL NOT NULL,
		original_importance REAL NOT NULL,
		embedding           TEXT,
		created_at          TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_experiences_context ON experiences(context);
	CREATE INDEX IF NOT EXISTS idx_experiences_created ON experiences(created_at DESC);

	CREATE TABLE IF NOT EXISTS knowledge (
		id                  TEXT PRIMARY KEY,
		content             TEXT NOT NULL,
		category            TEXT NOT NULL DEFAULT 'skill',
		embedding           TEXT NOT NULL,
		confidence          REAL NOT NULL,
		reinforcement_count INTEGER NOT NULL DEFAULT 0,
		created_at          TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_knowledge_category ON knowledge(category);

	CREATE TABLE IF NOT EXISTS router_state (
		name       TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS corrections (
		id         TEXT PRIMARY KEY,
		text       TEXT NOT NULL,
		context    TEXT,
		layer      TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_corrections_created ON corrections(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// marshalVec encodes an embedding as a JSON array, or nil for no embedding.
func marshalVec(v []float32) *string {
	if len(v) == 0 {
		return nil
	}
	b, _ := json.Marshal(v)
	str := string(b)
	return &str
}

// unmarshalVec decodes a JSON-encoded embedding column.
func unmarshalVec(col sql.NullString) []float32 {
	if !col.Valid || col.String == "" {
		return nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(col.String), &v); err != nil {
		return nil
	}
	return v
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
