package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/layermem/layermem/internal/model"
)

const weightsSlot = "weights"

// SaveWeights persists the router's weight vectors under the weights slot.
func (s *SQLiteStore) SaveWeights(ctx context.Context, weights map[model.Layer][]float64) error {
	payload, err := json.Marshal(weights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	now := formatTime(time.Now().UTC())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO router_state (name, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		weightsSlot, string(payload), now)
	return err
}

// LoadWeights returns the persisted weight vectors, or ErrNotFound when the
// router has never been trained.
func (s *SQLiteStore) LoadWeights(ctx context.Context) (map[model.Layer][]float64, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM router_state WHERE name = ?`, weightsSlot).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var weights map[model.Layer][]float64
	if err := json.Unmarshal([]byte(payload), &weights); err != nil {
		return nil, fmt.Errorf("unmarshal weights: %w", err)
	}
	return weights, nil
}

// AppendCorrection appends one teaching event to the correction log.
func (s *SQLiteStore) AppendCorrection(ctx context.Context, c model.Correction) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	var contextJSON *string
	if len(c.Context) > 0 {
		b, _ := json.Marshal(c.Context)
		str := string(b)
		contextJSON = &str
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO corrections (id, text, context, layer, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.newID(), c.Text, contextJSON, string(c.Layer), formatTime(c.CreatedAt))
	return err
}

// ListCorrections returns the correction log in insertion order.
func (s *SQLiteStore) ListCorrections(ctx context.Context) ([]model.Correction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT text, context, layer, created_at FROM corrections ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Correction
	for rows.Next() {
		var c model.Correction
		var contextJSON sql.NullString
		var layer, createdAt string
		if err := rows.Scan(&c.Text, &contextJSON, &layer, &createdAt); err != nil {
			return nil, err
		}
		if contextJSON.Valid {
			json.Unmarshal([]byte(contextJSON.String), &c.Context)
		}
		c.Layer = model.Layer(layer)
		c.CreatedAt = parseTime(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountCorrections returns the size of the correction log.
func (s *SQLiteStore) CountCorrections(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corrections`).Scan(&n)
	return n, err
}
