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

const knowledgeCols = `id, content, category, embedding, confidence, reinforcement_count, created_at`

// PutKnowledge inserts a knowledge entry. The embedding is mandatory.
func (s *SQLiteStore) PutKnowledge(ctx context.Context, k *model.KnowledgeEntry) (*model.KnowledgeEntry, error) {
	if len(k.Embedding) == 0 {
		return nil, fmt.Errorf("knowledge entry requires an embedding")
	}
	stored := *k
	if stored.ID == "" {
		stored.ID = s.newID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	if stored.Category == "" {
		stored.Category = "skill"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge (`+knowledgeCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.Content, stored.Category, marshalVec(stored.Embedding),
		stored.Confidence, stored.ReinforcementCount, formatTime(stored.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert knowledge: %w", err)
	}
	return &stored, nil
}

// ListKnowledge returns entries, optionally filtered by category.
func (s *SQLiteStore) ListKnowledge(ctx context.Context, category string) ([]model.KnowledgeEntry, error) {
	query := `SELECT ` + knowledgeCols + ` FROM knowledge`
	var args []interface{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectKnowledge(rows)
}

// ReinforceKnowledge bumps an entry's reinforcement count and adds 0.05
// confidence, capped at 1.0.
func (s *SQLiteStore) ReinforceKnowledge(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE knowledge
		 SET reinforcement_count = reinforcement_count + 1,
		     confidence = MIN(1.0, confidence + 0.05)
		 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// KnowledgeHit is a scored semantic search result.
type KnowledgeHit struct {
	Entry      model.KnowledgeEntry `json:"entry"`
	Similarity float64              `json:"similarity"`
	Score      float64              `json:"score"`
}

// SearchKnowledge ranks entries by cosine similarity weighted by confidence
// and a reinforcement boost capped at 2x.
func (s *SQLiteStore) SearchKnowledge(ctx context.Context, query []float32, topK int, threshold float64) ([]KnowledgeHit, error) {
	if topK <= 0 {
		topK = model.DefaultTopK
	}
	entries, err := s.ListKnowledge(ctx, "")
	if err != nil {
		return nil, err
	}

	var hits []KnowledgeHit
	for _, k := range entries {
		sim := vectors.Cosine(query, k.Embedding)
		boost := math.Min(2.0, 1+0.1*float64(k.ReinforcementCount))
		score := sim * k.Confidence * boost
		if score < threshold {
			continue
		}
		hits = append(hits, KnowledgeHit{Entry: k, Similarity: sim, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteKnowledge removes an entry by id.
func (s *SQLiteStore) DeleteKnowledge(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM knowledge WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearKnowledge removes all knowledge entries.
func (s *SQLiteStore) ClearKnowledge(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM knowledge`)
	return err
}

// CountKnowledge returns the number of stored entries.
func (s *SQLiteStore) CountKnowledge(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge`).Scan(&n)
	return n, err
}

func collectKnowledge(rows *sql.Rows) ([]model.KnowledgeEntry, error) {
	var entries []model.KnowledgeEntry
	for rows.Next() {
		k, err := scanKnowledge(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, k)
	}
	return entries, rows.Err()
}

func scanKnowledge(row scanner) (model.KnowledgeEntry, error) {
	var k model.KnowledgeEntry
	var embedding sql.NullString
	var createdAt string
	err := row.Scan(&k.ID, &k.Content, &k.Category, &embedding,
		&k.Confidence, &k.ReinforcementCount, &createdAt)
	if err != nil {
		return k, err
	}
	k.Embedding = unmarshalVec(embedding)
	k.CreatedAt = parseTime(createdAt)
	return k, nil
}
