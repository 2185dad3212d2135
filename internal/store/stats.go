package store

import (
	"context"
	"fmt"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string `json:"db_path"`
	DBSizeBytes   int64  `json:"db_size_bytes"`
	IdentityFacts int    `json:"identity_facts"`
	Experiences   int    `json:"experiences"`
	Knowledge     int    `json:"knowledge"`
	Corrections   int    `json:"corrections"`
	HasWeights    bool   `json:"has_weights"`
}

// Stats returns per-layer counts and router-state presence.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	counts := []struct {
		table string
		dest  *int
	}{
		{"identity_facts", &st.IdentityFacts},
		{"experiences", &st.Experiences},
		{"knowledge", &st.Knowledge},
		{"corrections", &st.Corrections},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+c.table).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM router_state WHERE name = 'weights'`).Scan(&n); err != nil {
		return nil, fmt.Errorf("count router state: %w", err)
	}
	st.HasWeights = n > 0

	return st, nil
}
