package storage

import (
	"context"
	"fmt"
	"math"
	"strings"

	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
)

const totalTolerance = 1e-6

// TotalMismatch is a day whose cached total differs from its item sum
type TotalMismatch struct {
	Date     string
	Stored   float64
	Computed float64
}

// IntegrityReport lists inconsistencies found in stored data
type IntegrityReport struct {
	Days        int
	Mismatches  []TotalMismatch
	ActiveGoals int
}

// OK reports whether nothing is wrong
func (r IntegrityReport) OK() bool {
	return len(r.Mismatches) == 0 && r.ActiveGoals <= 1
}

// Err returns nil for a clean report and an ErrInvariantBreach otherwise
func (r IntegrityReport) Err() error {
	if r.OK() {
		return nil
	}
	var problems []string
	for _, m := range r.Mismatches {
		problems = append(problems, fmt.Sprintf("%s total %.1f, items sum to %.1f", m.Date, m.Stored, m.Computed))
	}
	if r.ActiveGoals > 1 {
		problems = append(problems, fmt.Sprintf("%d active goals", r.ActiveGoals))
	}
	return fmt.Errorf("%w: %s", apperrors.ErrInvariantBreach, strings.Join(problems, "; "))
}

// Checker verifies the cross-row rules the schema cannot express
type Checker struct {
	meals   *MealStore
	weights *WeightStore
}

func NewChecker(meals *MealStore, weights *WeightStore) *Checker {
	return &Checker{meals: meals, weights: weights}
}

// Check compares every cached day total with its item sum and counts active goals
func (c *Checker) Check(ctx context.Context) (IntegrityReport, error) {
	days, err := c.meals.ListAllDays(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}

	report := IntegrityReport{Days: len(days)}
	for _, day := range days {
		computed := day.ItemKcal()
		if math.Abs(computed-day.Record.TotalKcal) > totalTolerance {
			report.Mismatches = append(report.Mismatches, TotalMismatch{
				Date:     day.Record.Date,
				Stored:   day.Record.TotalKcal,
				Computed: computed,
			})
		}
	}

	if report.ActiveGoals, err = c.weights.CountActiveGoals(ctx); err != nil {
		return IntegrityReport{}, err
	}
	return report, nil
}

// RepairTotals recomputes every mismatched day total and returns how many changed
func (c *Checker) RepairTotals(ctx context.Context) (int, error) {
	var fixed int
	err := c.meals.db.RunAtomic(ctx, func(ctx context.Context) error {
		report, err := c.Check(ctx)
		if err != nil {
			return err
		}
		for _, m := range report.Mismatches {
			if _, err := c.meals.RecomputeTotal(ctx, m.Date); err != nil {
				return err
			}
		}
		fixed = len(report.Mismatches)
		return nil
	})
	return fixed, err
}
