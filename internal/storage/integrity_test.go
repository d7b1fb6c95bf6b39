package storage

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
	"github.com/julianstephens/sqirvy-health/internal/models"
)

func TestCheckerCleanStore(t *testing.T) {
	s, cleanup := setupTestStores(t)
	defer cleanup()
	ctx := context.Background()

	id, _ := s.meals.CreateDay(ctx, "2025-08-15", 0)
	_, _ = s.meals.AddItem(ctx, id, snapshot("Egg", models.UnitPiece, 70), models.SlotBreakfast, 1)
	if _, err := s.meals.RecomputeTotal(ctx, "2025-08-15"); err != nil {
		t.Fatalf("RecomputeTotal() failed: %v", err)
	}
	_, _ = s.weights.SetGoal(ctx, 170)

	report, err := NewChecker(s.meals, s.weights).Check(ctx)
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if !report.OK() || report.Err() != nil {
		t.Errorf("Check() = %+v, want clean", report)
	}
	if report.Days != 1 || report.ActiveGoals != 1 {
		t.Errorf("Check() counts = %d days, %d goals", report.Days, report.ActiveGoals)
	}
}

func TestCheckerDetectsAndRepairsStaleTotals(t *testing.T) {
	s, cleanup := setupTestStores(t)
	defer cleanup()
	ctx := context.Background()

	id, _ := s.meals.CreateDay(ctx, "2025-08-15", 0)
	_, _ = s.meals.AddItem(ctx, id, snapshot("Egg", models.UnitPiece, 70), models.SlotBreakfast, 1)
	_, _ = s.meals.AddItem(ctx, id, snapshot("Toast", models.UnitSlice, 80), models.SlotBreakfast, 1)

	checker := NewChecker(s.meals, s.weights)
	report, err := checker.Check(ctx)
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if len(report.Mismatches) != 1 {
		t.Fatalf("Check() mismatches = %+v, want 1", report.Mismatches)
	}
	if m := report.Mismatches[0]; m.Stored != 0 || m.Computed != 150 {
		t.Errorf("mismatch = %+v, want stored 0 computed 150", m)
	}
	if !errors.Is(report.Err(), apperrors.ErrInvariantBreach) {
		t.Errorf("report.Err() = %v, want ErrInvariantBreach", report.Err())
	}

	fixed, err := checker.RepairTotals(ctx)
	if err != nil {
		t.Fatalf("RepairTotals() failed: %v", err)
	}
	if fixed != 1 {
		t.Errorf("RepairTotals() = %d, want 1", fixed)
	}
	day, _, _ := s.meals.GetDay(ctx, "2025-08-15")
	if day.Record.TotalKcal != 150 {
		t.Errorf("total after repair = %v, want 150", day.Record.TotalKcal)
	}
}

func TestIntegrityReportMultipleActiveGoals(t *testing.T) {
	report := IntegrityReport{ActiveGoals: 2}
	if report.OK() {
		t.Error("OK() = true with two active goals")
	}
	if !errors.Is(report.Err(), apperrors.ErrInvariantBreach) {
		t.Errorf("Err() = %v, want ErrInvariantBreach", report.Err())
	}
}
