// Package tracker implements the day-to-day logging operations on top of the
// stores. It owns the two-step total protocol: every item change is followed
// by a recompute of the cached day total inside the same unit of work.
package tracker

import (
	"context"
	"fmt"

	"github.com/julianstephens/sqirvy-health/internal/constants"
	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
	"github.com/julianstephens/sqirvy-health/internal/logger"
	"github.com/julianstephens/sqirvy-health/internal/models"
	"github.com/julianstephens/sqirvy-health/internal/storage"
	"github.com/julianstephens/sqirvy-health/internal/validation"
)

// Atomic runs a function as one unit of work
type Atomic interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// FoodInput describes a food to log
type FoodInput struct {
	Name     string
	Unit     string
	Kcal     float64
	Quantity float64
}

// FoodPatch changes a logged item. Zero fields keep the current value.
type FoodPatch struct {
	Name string
	Unit string
	Kcal float64
}

type Service struct {
	atomic  Atomic
	foods   storage.FoodCatalog
	meals   storage.MealLedger
	weights storage.WeightLedger
}

func New(atomic Atomic, foods storage.FoodCatalog, meals storage.MealLedger, weights storage.WeightLedger) *Service {
	return &Service{atomic: atomic, foods: foods, meals: meals, weights: weights}
}

// LogFood adds a food to a slot of the given day, creating the day when
// needed, and records it in the catalog unless a matching entry exists.
func (s *Service) LogFood(ctx context.Context, date string, slot models.Slot, in FoodInput) (models.MealItem, error) {
	if err := validation.Date(date); err != nil {
		return models.MealItem{}, err
	}
	if !slot.Valid() {
		return models.MealItem{}, fmt.Errorf("%w: unknown meal slot %q", apperrors.ErrInvalidInput, slot)
	}
	food, err := validation.Food(in.Name, in.Unit, in.Kcal)
	if err != nil {
		return models.MealItem{}, err
	}
	quantity := validation.Quantity(in.Quantity)

	var item models.MealItem
	err = s.atomic.RunAtomic(ctx, func(ctx context.Context) error {
		day, found, err := s.meals.GetDay(ctx, date)
		if err != nil {
			return err
		}
		recordID := day.Record.ID
		if !found {
			logger.Debug("creating day", "date", date)
			if recordID, err = s.meals.CreateDay(ctx, date, 0); err != nil {
				return err
			}
		}

		itemID, err := s.meals.AddItem(ctx, recordID, food, slot, quantity)
		if err != nil {
			return err
		}
		day, err = s.meals.RecomputeTotal(ctx, date)
		if err != nil {
			return err
		}
		item, _ = day.Find(itemID)

		_, matched, err := s.foods.FindMatch(ctx, food.Name, food.Unit)
		if err != nil {
			return err
		}
		if !matched {
			logger.Debug("adding food to catalog", "name", food.Name, "unit", food.Unit, "kcal", food.Kcal)
			if _, err := s.foods.Add(ctx, food.Name, food.Unit, food.Kcal); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.MealItem{}, err
	}
	logger.Info("logged food", "date", date, "slot", slot, "name", food.Name, "kcal", food.Kcal)
	return item, nil
}

// findItem loads the day and the item on it, or ErrNotFound
func (s *Service) findItem(ctx context.Context, date string, itemID int64) (models.MealItem, error) {
	day, found, err := s.meals.GetDay(ctx, date)
	if err != nil {
		return models.MealItem{}, err
	}
	if !found {
		return models.MealItem{}, fmt.Errorf("no meals found for %s: %w", date, apperrors.ErrNotFound)
	}
	item, ok := day.Find(itemID)
	if !ok {
		return models.MealItem{}, fmt.Errorf("food item %d on %s: %w", itemID, date, apperrors.ErrNotFound)
	}
	return item, nil
}

// UpdateFood changes the name, unit or kcal of a logged item
func (s *Service) UpdateFood(ctx context.Context, date string, itemID int64, patch FoodPatch) (models.MealItem, error) {
	if err := validation.Date(date); err != nil {
		return models.MealItem{}, err
	}

	var updated models.MealItem
	err := s.atomic.RunAtomic(ctx, func(ctx context.Context) error {
		item, err := s.findItem(ctx, date, itemID)
		if err != nil {
			return err
		}

		name, unit, kcal := item.Food.Name, string(item.Food.Unit), item.Food.Kcal
		if patch.Name != "" {
			name = patch.Name
		}
		if patch.Unit != "" {
			unit = patch.Unit
		}
		if patch.Kcal != 0 {
			kcal = patch.Kcal
		}
		food, err := validation.Food(name, unit, kcal)
		if err != nil {
			return err
		}

		if _, err := s.meals.UpdateItem(ctx, itemID, food); err != nil {
			return err
		}
		day, err := s.meals.RecomputeTotal(ctx, date)
		if err != nil {
			return err
		}
		updated, _ = day.Find(itemID)
		return nil
	})
	if err != nil {
		return models.MealItem{}, err
	}
	return updated, nil
}

// DeleteFood removes a logged item from its day
func (s *Service) DeleteFood(ctx context.Context, date string, itemID int64) error {
	if err := validation.Date(date); err != nil {
		return err
	}
	return s.atomic.RunAtomic(ctx, func(ctx context.Context) error {
		if _, err := s.findItem(ctx, date, itemID); err != nil {
			return err
		}
		if _, err := s.meals.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		_, err := s.meals.RecomputeTotal(ctx, date)
		return err
	})
}

// Day returns the stored day, or an empty day when nothing is logged
func (s *Service) Day(ctx context.Context, date string) (models.Day, error) {
	if err := validation.Date(date); err != nil {
		return models.Day{}, err
	}
	day, found, err := s.meals.GetDay(ctx, date)
	if err != nil {
		return models.Day{}, err
	}
	if !found {
		return models.NewDay(models.MealRecord{Date: date}), nil
	}
	return day, nil
}

// Days returns every stored day, newest first
func (s *Service) Days(ctx context.Context) ([]models.Day, error) {
	return s.meals.ListAllDays(ctx)
}

// SearchFoods looks up catalog entries for autocomplete
func (s *Service) SearchFoods(ctx context.Context, query string, limit int) ([]models.FoodItem, error) {
	if limit <= 0 {
		limit = constants.DefaultSearchLimit
	}
	return s.foods.Search(ctx, query, limit)
}

// Foods returns the whole catalog
func (s *Service) Foods(ctx context.Context) ([]models.FoodItem, error) {
	return s.foods.ListAll(ctx)
}
