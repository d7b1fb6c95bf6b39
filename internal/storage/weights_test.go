package storage

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
	"github.com/julianstephens/sqirvy-health/internal/models"
)

func TestUpsertReplacesByDate(t *testing.T) {
	s, cleanup := setupTestStores(t)
	defer cleanup()
	ctx := context.Background()

	for _, w := range []float64{180.2, 179.6} {
		ok, err := s.weights.Upsert(ctx, "2025-08-15", w)
		if err != nil {
			t.Fatalf("Upsert(%v) failed: %v", w, err)
		}
		if !ok {
			t.Errorf("Upsert(%v) affected = false", w)
		}
	}

	if got := countRows(t, s.db, "weight_entries"); got != 1 {
		t.Errorf("weight_entries = %d, want 1", got)
	}
	entry, found, err := s.weights.FindByDate(ctx, "2025-08-15")
	if err != nil || !found {
		t.Fatalf("FindByDate() = %v, %v", found, err)
	}
	if entry.Weight != 179.6 {
		t.Errorf("FindByDate().Weight = %v, want 179.6", entry.Weight)
	}
}

func TestWeightListAllAndDelete(t *testing.T) {
	s, cleanup := setupTestStores(t)
	defer cleanup()
	ctx := context.Background()

	for _, date := range []string{"2025-08-13", "2025-08-15", "2025-08-14"} {
		if _, err := s.weights.Upsert(ctx, date, 180); err != nil {
			t.Fatalf("Upsert() failed: %v", err)
		}
	}

	entries, err := s.weights.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	if len(entries) != 3 || entries[0].Date != "2025-08-15" || entries[2].Date != "2025-08-13" {
		t.Errorf("ListAll() = %+v, want newest first", entries)
	}

	if err := s.weights.DeleteByDate(ctx, "2025-08-14"); err != nil {
		t.Fatalf("DeleteByDate() failed: %v", err)
	}
	if err := s.weights.DeleteByDate(ctx, "2025-08-14"); err != nil {
		t.Errorf("DeleteByDate(absent) = %v, want nil", err)
	}
	if _, found, _ := s.weights.FindByDate(ctx, "2025-08-14"); found {
		t.Error("entry still present after DeleteByDate()")
	}
}

func TestSetGoalKeepsOneActive(t *testing.T) {
	tickClock(t)
	s, cleanup := setupTestStores(t)
	defer cleanup()
	ctx := context.Background()

	if _, found, err := s.weights.GetActiveGoal(ctx); err != nil || found {
		t.Fatalf("GetActiveGoal() on empty = %v, %v, want not found", found, err)
	}

	for _, g := range []float64{175.0, 170.0} {
		if _, err := s.weights.SetGoal(ctx, g); err != nil {
			t.Fatalf("SetGoal(%v) failed: %v", g, err)
		}
	}

	goal, found, err := s.weights.GetActiveGoal(ctx)
	if err != nil || !found {
		t.Fatalf("GetActiveGoal() = %v, %v", found, err)
	}
	if goal.GoalWeight != 170.0 || !goal.IsActive {
		t.Errorf("GetActiveGoal() = %+v, want active 170", goal)
	}

	n, err := s.weights.CountActiveGoals(ctx)
	if err != nil {
		t.Fatalf("CountActiveGoals() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountActiveGoals() = %d, want 1", n)
	}

	history, err := s.weights.ListGoals(ctx)
	if err != nil {
		t.Fatalf("ListGoals() failed: %v", err)
	}
	if len(history) != 2 || history[0].GoalWeight != 170 || history[1].IsActive {
		t.Errorf("ListGoals() = %+v", history)
	}
}

func TestSecondActiveGoalRejected(t *testing.T) {
	s, cleanup := setupTestStores(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := s.weights.SetGoal(ctx, 175); err != nil {
		t.Fatalf("SetGoal() failed: %v", err)
	}
	_, err := s.weights.insertGoal(ctx, 160)
	if !errors.Is(err, apperrors.ErrConstraintViolation) {
		t.Errorf("inserting a second active goal error = %v, want ErrConstraintViolation", err)
	}
}

func TestWeightReplaceAll(t *testing.T) {
	s, cleanup := setupTestStores(t)
	defer cleanup()
	ctx := context.Background()

	_, _ = s.weights.SetGoal(ctx, 190)
	_, _ = s.weights.Upsert(ctx, "2025-01-01", 200)

	goal := 165.0
	err := s.weights.ReplaceAll(ctx, &goal, []models.WeightEntry{
		{Date: "2025-08-14", Weight: 181},
		{Date: "2025-08-15", Weight: 180.4},
	})
	if err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}

	active, found, _ := s.weights.GetActiveGoal(ctx)
	if !found || active.GoalWeight != 165 {
		t.Errorf("GetActiveGoal() = %+v, %v, want 165", active, found)
	}
	if got := countRows(t, s.db, "weight_goals"); got != 1 {
		t.Errorf("weight_goals = %d, want 1", got)
	}
	entries, _ := s.weights.ListAll(ctx)
	if len(entries) != 2 || entries[0].Date != "2025-08-15" {
		t.Errorf("ListAll() = %+v", entries)
	}

	// nil goal clears goals entirely
	if err := s.weights.ReplaceAll(ctx, nil, nil); err != nil {
		t.Fatalf("ReplaceAll(nil) failed: %v", err)
	}
	if _, found, _ := s.weights.GetActiveGoal(ctx); found {
		t.Error("goal present after ReplaceAll(nil, nil)")
	}
}

func TestWeightReplaceAllIsAtomic(t *testing.T) {
	s, cleanup := setupTestStores(t)
	defer cleanup()
	ctx := context.Background()

	_, _ = s.weights.SetGoal(ctx, 190)
	_, _ = s.weights.Upsert(ctx, "2025-01-01", 200)

	goal := 165.0
	err := s.weights.ReplaceAll(ctx, &goal, []models.WeightEntry{
		{Date: "2025-08-14", Weight: 181},
		{Date: "2025-08-14", Weight: 182},
	})
	if !errors.Is(err, apperrors.ErrConstraintViolation) {
		t.Fatalf("ReplaceAll() error = %v, want ErrConstraintViolation", err)
	}

	active, _, _ := s.weights.GetActiveGoal(ctx)
	if active.GoalWeight != 190 {
		t.Errorf("active goal after failed ReplaceAll = %v, want 190", active.GoalWeight)
	}
	entries, _ := s.weights.ListAll(ctx)
	if len(entries) != 1 || entries[0].Date != "2025-01-01" {
		t.Errorf("entries after failed ReplaceAll = %+v", entries)
	}
}
