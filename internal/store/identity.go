package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/layermem/layermem/internal/model"
)

const identityCols = `id, key, value, category, confidence, confirmation_count, source, last_confirmed, created_at`

// PutFact inserts an identity fact, assigning id and timestamps when unset.
func (s *SQLiteStore) PutFact(ctx context.Context, f *model.IdentityFact) (*model.IdentityFact, error) {
	now := time.Now().UTC().Truncate(time.Second)
	stored := *f
	if stored.ID == "" {
		stored.ID = s.newID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.LastConfirmed.IsZero() {
		stored.LastConfirmed = stored.CreatedAt
	}
	if stored.ConfirmationCount < 1 {
		stored.ConfirmationCount = 1
	}
	if stored.Category == "" {
		stored.Category = "preference"
	}
	if stored.Source == "" {
		stored.Source = "explicit"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identity_facts (`+identityCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.Key, stored.Value, stored.Category, stored.Confidence,
		stored.ConfirmationCount, stored.Source,
		formatTime(stored.LastConfirmed), formatTime(stored.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert identity fact: %w", err)
	}
	return &stored, nil
}

// GetFactByKey returns the highest-confidence fact for key, or ErrNotFound.
func (s *SQLiteStore) GetFactByKey(ctx context.Context, key string) (*model.IdentityFact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityCols+` FROM identity_facts WHERE key = ?
		 ORDER BY confidence DESC, last_confirmed DESC LIMIT 1`, key)
	f, err := scanFact(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ReinforceFact sets a fact's confidence (capped at 1.0), bumps its
// confirmation count, and refreshes last_confirmed.
func (s *SQLiteStore) ReinforceFact(ctx context.Context, id string, confidence float64) error {
	if confidence > 1.0 {
		confidence = 1.0
	}
	now := formatTime(time.Now().UTC().Truncate(time.Second))
	res, err := s.db.ExecContext(ctx,
		`UPDATE identity_facts
		 SET confidence = ?, confirmation_count = confirmation_count + 1, last_confirmed = ?
		 WHERE id = ?`, confidence, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceFactValue swaps in a new value after conflict resolution. This is
// the only path allowed to lower confidence: it lands at 0.7 with the
// confirmation count reset.
func (s *SQLiteStore) ReplaceFactValue(ctx context.Context, id, value string) error {
	now := formatTime(time.Now().UTC().Truncate(time.Second))
	res, err := s.db.ExecContext(ctx,
		`UPDATE identity_facts
		 SET value = ?, confidence = 0.7, confirmation_count = 1, last_confirmed = ?
		 WHERE id = ?`, value, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchFacts matches query as a case-insensitive substring over key, value
// and category, sorted by confidence descending.
func (s *SQLiteStore) SearchFacts(ctx context.Context, query string) ([]model.IdentityFact, error) {
	like := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+identityCols+` FROM identity_facts
		 WHERE lower(key) LIKE ? OR lower(value) LIKE ? OR lower(category) LIKE ?
		 ORDER BY confidence DESC, last_confirmed DESC`, like, like, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFacts(rows)
}

// ListFacts returns every fact, highest confidence first.
func (s *SQLiteStore) ListFacts(ctx context.Context) ([]model.IdentityFact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+identityCols+` FROM identity_facts ORDER BY confidence DESC, key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFacts(rows)
}

// DeleteFact removes a fact by id.
func (s *SQLiteStore) DeleteFact(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM identity_facts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearIdentity removes all identity facts.
func (s *SQLiteStore) ClearIdentity(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM identity_facts`)
	return err
}

// CountIdentity returns the number of stored facts.
func (s *SQLiteStore) CountIdentity(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identity_facts`).Scan(&n)
	return n, err
}

func collectFacts(rows *sql.Rows) ([]model.IdentityFact, error) {
	var facts []model.IdentityFact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func scanFact(row scanner) (model.IdentityFact, error) {
	var f model.IdentityFact
	var lastConfirmed, createdAt string
	err := row.Scan(&f.ID, &f.Key, &f.Value, &f.Category, &f.Confidence,
		&f.ConfirmationCount, &f.Source, &lastConfirmed, &createdAt)
	if err != nil {
		return f, err
	}
	f.LastConfirmed = parseTime(lastConfirmed)
	f.CreatedAt = parseTime(createdAt)
	return f, nil
}
