package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st, err := s.Stats(ctx, "test.db")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.IdentityFacts != 0 || st.Experiences != 0 || st.Knowledge != 0 {
		t.Errorf("expected empty counts, got %+v", st)
	}
	if st.HasWeights {
		t.Error("fresh store should have no weights")
	}
}

func TestStatsSurfacesQueryErrors(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	s.Close()

	if _, err := s.Stats(context.Background(), "test.db"); err == nil {
		t.Error("expected an error from a closed store, not zeroed counts")
	}
}
