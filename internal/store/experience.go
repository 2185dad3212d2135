package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/layermem/layermem/internal/model"
	"github.com/layermem/layermem/internal/vectors"
)

const experienceCols = `id, content, context, role, importance, original_importance, embedding, created_at`

// PutExperience inserts an experience entry, assigning id and created_at
// when unset. Importance defaults to the original importance.
func (s *SQLiteStore) PutExperience(ctx context.Context, e *model.ExperienceEntry) (*model.ExperienceEntry, error) {
	stored := *e
	if stored.ID == "" {
		stored.ID = s.newID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	if stored.Context == "" {
		stored.Context = model.ContextGeneral
	}
	if stored.Role == "" {
		stored.Role = "user"
	}
	if stored.Importance == 0 {
		stored.Importance = stored.OriginalImportance
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO experiences (`+experienceCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.Content, string(stored.Context), stored.Role,
		stored.Importance, stored.OriginalImportance,
		marshalVec(stored.Embedding), formatTime(stored.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert experience: %w", err)
	}
	return &stored, nil
}

// ListExperiences returns entries, optionally filtered by context, newest
// first. limit <= 0 means no limit.
func (s *SQLiteStore) ListExperiences(ctx context.Context, ctxFilter model.Context, limit int) ([]model.ExperienceEntry, error) {
	query := `SELECT ` + experienceCols + ` FROM experiences`
	var args []interface{}
	if ctxFilter != "" {
		query += ` WHERE context = ?`
		args = append(args, string(ctxFilter))
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExperiences(rows)
}

// RecentExperiences returns entries with importance >= 0.2, newest first.
func (s *SQLiteStore) RecentExperiences(ctx context.Context, limit int, ctxFilter model.Context) ([]model.ExperienceEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + experienceCols + ` FROM experiences WHERE importance >= 0.2`
	args := []interface{}{}
	if ctxFilter != "" {
		query += ` AND context = ?`
		args = append(args, string(ctxFilter))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExperiences(rows)
}

// ExperienceHit is a scored semantic search result.
type ExperienceHit struct {
	Entry      model.ExperienceEntry `json:"entry"`
	Similarity float64               `json:"similarity"`
	Score      float64               `json:"score"`
}

// SearchExperiences ranks entries by cosine similarity weighted by current
// importance and a recency factor. Entries without an embedding are skipped.
func (s *SQLiteStore) SearchExperiences(ctx context.Context, query []float32, topK int, threshold float64, ctxFilter model.Context) ([]ExperienceHit, error) {
	if topK <= 0 {
		topK = model.DefaultTopK
	}
	entries, err := s.ListExperiences(ctx, ctxFilter, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var hits []ExperienceHit
	for _, e := range entries {
		if len(e.Embedding) == 0 {
			continue
		}
		sim := vectors.Cosine(query, e.Embedding)
		days := now.Sub(e.CreatedAt).Hours() / 24.0
		recency := math.Max(0.5, 1-days/30.0)
		score := sim * e.Importance * recency
		if score < threshold {
			continue
		}
		hits = append(hits, ExperienceHit{Entry: e, Similarity: sim, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// ApplyDecay recomputes every entry's importance from its original
// importance and age, writing back only when the value changed. The pass is
// idempotent at a fixed instant and checks ctx between rows. Computed in Go
// because modernc.org/sqlite has no pow().
func (s *SQLiteStore) ApplyDecay(ctx context.Context) (int, error) {
	entries, err := s.ListExperiences(ctx, "", 0)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	changed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		days := now.Sub(e.CreatedAt).Hours() / 24.0
		if days < 0 {
			days = 0
		}
		decayed := math.Max(model.MinImportance, e.OriginalImportance*math.Pow(model.DecayRate, days))
		if math.Abs(decayed-e.Importance) < 1e-6 {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE experiences SET importance = ? WHERE id = ?`, decayed, e.ID); err != nil {
			return changed, fmt.Errorf("decay update: %w", err)
		}
		changed++
	}
	return changed, nil
}

// DeleteExperience removes an entry by id.
func (s *SQLiteStore) DeleteExperience(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM experiences WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearExperiences removes all experience entries.
func (s *SQLiteStore) ClearExperiences(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM experiences`)
	return err
}

// CountExperiences returns the number of stored entries.
func (s *SQLiteStore) CountExperiences(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiences`).Scan(&n)
	return n, err
}

func collectExperiences(rows *sql.Rows) ([]model.ExperienceEntry, error) {
	var entries []model.ExperienceEntry
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanExperience(row scanner) (model.ExperienceEntry, error) {
	var e model.ExperienceEntry
	var embedding sql.NullString
	var entryCtx, createdAt string
	err := row.Scan(&e.ID, &e.Content, &entryCtx, &e.Role,
		&e.Importance, &e.OriginalImportance, &embedding, &createdAt)
	if err != nil {
		return e, err
	}
	e.Context = model.Context(entryCtx)
	e.Embedding = unmarshalVec(embedding)
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}
