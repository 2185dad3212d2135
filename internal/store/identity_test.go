package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/layermem/layermem/internal/model"
)

func TestPutFactDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stored, err := s.PutFact(ctx, &model.IdentityFact{
		Key: "name", Value: "John", Confidence: 0.8,
	})
	if err != nil {
		t.Fatalf("put fact: %v", err)
	}
	if stored.ID == "" {
		t.Error("expected assigned id")
	}
	if stored.Category != "preference" || stored.Source != "explicit" {
		t.Errorf("unexpected defaults: %+v", stored)
	}
	if stored.ConfirmationCount != 1 {
		t.Errorf("expected count 1, got %d", stored.ConfirmationCount)
	}
	if stored.CreatedAt.IsZero() || !stored.LastConfirmed.Equal(stored.CreatedAt) {
		t.Errorf("expected last_confirmed to default to created_at: %+v", stored)
	}

	got, err := s.GetFactByKey(ctx, "name")
	if err != nil {
		t.Fatalf("get fact: %v", err)
	}
	if *got != *stored {
		t.Errorf("round trip mismatch:\n stored %+v\n got    %+v", stored, got)
	}
}

func TestGetFactByKeyCanonical(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetFactByKey(ctx, "name"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	s.PutFact(ctx, &model.IdentityFact{Key: "name", Value: "old", Confidence: 0.6})
	s.PutFact(ctx, &model.IdentityFact{Key: "name", Value: "canonical", Confidence: 0.9})
	s.PutFact(ctx, &model.IdentityFact{Key: "diet", Value: "vegan", Confidence: 0.95})

	got, err := s.GetFactByKey(ctx, "name")
	if err != nil {
		t.Fatalf("get fact: %v", err)
	}
	if got.Value != "canonical" {
		t.Errorf("expected highest-confidence fact, got %q", got.Value)
	}
}

func TestReinforceFact(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f, _ := s.PutFact(ctx, &model.IdentityFact{
		Key: "name", Value: "John", Confidence: 0.8,
		LastConfirmed: time.Now().UTC().Add(-time.Hour).Truncate(time.Second),
	})

	if err := s.ReinforceFact(ctx, f.ID, f.Confidence+0.1); err != nil {
		t.Fatalf("reinforce: %v", err)
	}
	got, _ := s.GetFactByKey(ctx, "name")
	if got.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", got.Confidence)
	}
	if got.ConfirmationCount != 2 {
		t.Errorf("expected count 2, got %d", got.ConfirmationCount)
	}
	if !got.LastConfirmed.After(f.LastConfirmed) {
		t.Error("expected last_confirmed to advance")
	}

	// Confidence caps at 1.0.
	if err := s.ReinforceFact(ctx, f.ID, 1.7); err != nil {
		t.Fatalf("reinforce: %v", err)
	}
	got, _ = s.GetFactByKey(ctx, "name")
	if got.Confidence != 1.0 {
		t.Errorf("expected cap at 1.0, got %v", got.Confidence)
	}

	if err := s.ReinforceFact(ctx, "missing", 0.9); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceFactValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f, _ := s.PutFact(ctx, &model.IdentityFact{
		Key: "name", Value: "John", Confidence: 0.95, ConfirmationCount: 4,
	})

	if err := s.ReplaceFactValue(ctx, f.ID, "Alex"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ := s.GetFactByKey(ctx, "name")
	if got.Value != "Alex" {
		t.Errorf("expected new value, got %q", got.Value)
	}
	if got.Confidence != 0.7 {
		t.Errorf("replaced facts start at 0.7, got %v", got.Confidence)
	}
	if got.ConfirmationCount != 1 {
		t.Errorf("replacement resets the count, got %d", got.ConfirmationCount)
	}

	if err := s.ReplaceFactValue(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchFacts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.PutFact(ctx, &model.IdentityFact{Key: "name", Value: "John", Confidence: 0.8})
	s.PutFact(ctx, &model.IdentityFact{Key: "diet", Value: "Vegetarian", Confidence: 0.9})
	s.PutFact(ctx, &model.IdentityFact{Key: "allergy", Value: "peanuts", Confidence: 0.95})

	// Case-insensitive over key, value and category.
	hits, err := s.SearchFacts(ctx, "VEGETARIAN")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].Key != "diet" {
		t.Errorf("expected diet fact, got %+v", hits)
	}

	hits, _ = s.SearchFacts(ctx, "preference")
	if len(hits) != 3 {
		t.Fatalf("expected all 3 facts by category, got %d", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Confidence > hits[i-1].Confidence {
			t.Error("expected confidence-descending order")
		}
	}
}

func TestDeleteAndClearIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f, _ := s.PutFact(ctx, &model.IdentityFact{Key: "name", Value: "John", Confidence: 0.8})
	s.PutFact(ctx, &model.IdentityFact{Key: "diet", Value: "vegan", Confidence: 0.8})

	if err := s.DeleteFact(ctx, f.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteFact(ctx, f.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
	if n, _ := s.CountIdentity(ctx); n != 1 {
		t.Errorf("expected 1 fact left, got %d", n)
	}

	if err := s.ClearIdentity(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n, _ := s.CountIdentity(ctx); n != 0 {
		t.Errorf("expected empty table, got %d", n)
	}
}
