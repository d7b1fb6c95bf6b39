package tracker

import (
	"context"
	"fmt"
	"math"

	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
	"github.com/julianstephens/sqirvy-health/internal/logger"
	"github.com/julianstephens/sqirvy-health/internal/models"
	"github.com/julianstephens/sqirvy-health/internal/validation"
)

// WeightSummary describes progress towards the active goal
type WeightSummary struct {
	Entries int
	Latest  *models.WeightEntry
	Goal    *models.WeightGoal
	// Change is latest minus the earliest recorded weight
	Change float64
	// ToGoal is latest minus the goal; zero without both
	ToGoal float64
}

// LogWeight records the weight for date, replacing an existing entry
func (s *Service) LogWeight(ctx context.Context, date string, weight float64) (models.WeightEntry, error) {
	if err := validation.Date(date); err != nil {
		return models.WeightEntry{}, err
	}
	w, err := validation.Weight(weight)
	if err != nil {
		return models.WeightEntry{}, err
	}

	var entry models.WeightEntry
	err = s.atomic.RunAtomic(ctx, func(ctx context.Context) error {
		_, existed, err := s.weights.FindByDate(ctx, date)
		if err != nil {
			return err
		}
		if _, err := s.weights.Upsert(ctx, date, w); err != nil {
			return err
		}
		if existed {
			logger.Debug("replacing weight entry", "date", date)
		}
		var found bool
		entry, found, err = s.weights.FindByDate(ctx, date)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: weight for %s missing after save", apperrors.ErrInvariantBreach, date)
		}
		return nil
	})
	if err != nil {
		return models.WeightEntry{}, err
	}
	logger.Info("logged weight", "date", date, "weight", w)
	return entry, nil
}

// DeleteWeight removes the entry for date
func (s *Service) DeleteWeight(ctx context.Context, date string) error {
	if err := validation.Date(date); err != nil {
		return err
	}
	return s.atomic.RunAtomic(ctx, func(ctx context.Context) error {
		_, found, err := s.weights.FindByDate(ctx, date)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no weight entry for %s: %w", date, apperrors.ErrNotFound)
		}
		return s.weights.DeleteByDate(ctx, date)
	})
}

// Weights returns every entry, newest first
func (s *Service) Weights(ctx context.Context) ([]models.WeightEntry, error) {
	return s.weights.ListAll(ctx)
}

// SetGoal makes goal the single active goal
func (s *Service) SetGoal(ctx context.Context, goal float64) (models.WeightGoal, error) {
	g, err := validation.Goal(goal)
	if err != nil {
		return models.WeightGoal{}, err
	}

	var active models.WeightGoal
	err = s.atomic.RunAtomic(ctx, func(ctx context.Context) error {
		previous, hadGoal, err := s.weights.GetActiveGoal(ctx)
		if err != nil {
			return err
		}
		if _, err := s.weights.SetGoal(ctx, g); err != nil {
			return err
		}
		if hadGoal {
			logger.Info("goal weight changed", "from", previous.GoalWeight, "to", g)
		}
		var found bool
		active, found, err = s.weights.GetActiveGoal(ctx)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: no active goal after setting one", apperrors.ErrInvariantBreach)
		}
		return nil
	})
	return active, err
}

// Goal returns the active goal, if any
func (s *Service) Goal(ctx context.Context) (models.WeightGoal, bool, error) {
	return s.weights.GetActiveGoal(ctx)
}

// GoalHistory returns every goal ever set, newest first
func (s *Service) GoalHistory(ctx context.Context) ([]models.WeightGoal, error) {
	return s.weights.ListGoals(ctx)
}

func (s *Service) WeightSummary(ctx context.Context) (WeightSummary, error) {
	entries, err := s.weights.ListAll(ctx)
	if err != nil {
		return WeightSummary{}, err
	}
	goal, hasGoal, err := s.weights.GetActiveGoal(ctx)
	if err != nil {
		return WeightSummary{}, err
	}

	summary := WeightSummary{Entries: len(entries)}
	if hasGoal {
		summary.Goal = &goal
	}
	if len(entries) == 0 {
		return summary, nil
	}

	latest := entries[0]
	earliest := entries[len(entries)-1]
	summary.Latest = &latest
	summary.Change = round1(latest.Weight - earliest.Weight)
	if hasGoal {
		summary.ToGoal = round1(latest.Weight - goal.GoalWeight)
	}
	return summary, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
