package compat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/julianstephens/sqirvy-health/internal/constants"
	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
)

// LegacyFiles locates the flat-file data to migrate
type LegacyFiles struct {
	MealsPath  string
	WeightPath string
	// BackupRoot receives one subdirectory per run holding copies of the inputs
	BackupRoot string
}

// Report summarizes a legacy migration
type Report struct {
	RunID         string
	BackupDir     string
	BackedUp      []string
	MealsImported bool
	FoodItems     int
	Days          int
	WeightEntries int
	Goal          float64
}

// Migrator performs the one-time import from the legacy JSON files
type Migrator struct {
	projector *Projector
	newRunID  func() (uuid.UUID, error)
}

func NewMigrator(projector *Projector) *Migrator {
	return &Migrator{projector: projector, newRunID: uuid.NewV7}
}

// Run backs up the legacy files, imports them and verifies the result by
// exporting again. A missing meals file is an empty document; a missing
// weight file is treated as a 150 goal with no entries.
func (m *Migrator) Run(ctx context.Context, files LegacyFiles) (Report, error) {
	id, err := m.newRunID()
	if err != nil {
		return Report{}, fmt.Errorf("failed to create run id: %w", err)
	}
	report := Report{RunID: id.String()}

	mealsData, mealsFound, err := readOptional(files.MealsPath)
	if err != nil {
		return report, err
	}
	weightData, weightFound, err := readOptional(files.WeightPath)
	if err != nil {
		return report, err
	}

	meals := MealsDocument{}.normalized()
	if mealsFound {
		if meals, err = DecodeMeals(mealsData); err != nil {
			return report, err
		}
	}
	weight := WeightDocument{Weight: WeightBody{Goal: constants.LegacyDefaultGoal}}.normalized()
	if weightFound {
		if weight, err = DecodeWeight(weightData); err != nil {
			return report, err
		}
	}

	if mealsFound || weightFound {
		report.BackupDir = filepath.Join(files.BackupRoot, report.RunID)
		if err := os.MkdirAll(report.BackupDir, 0700); err != nil {
			return report, fmt.Errorf("failed to create backup directory: %w", err)
		}
	}
	if mealsFound {
		dst := filepath.Join(report.BackupDir, constants.LegacyMealsFile)
		if err := WriteFileAtomic(dst, mealsData); err != nil {
			return report, fmt.Errorf("failed to back up meals file: %w", err)
		}
		report.BackedUp = append(report.BackedUp, dst)
	}
	if weightFound {
		dst := filepath.Join(report.BackupDir, constants.LegacyWeightFile)
		if err := WriteFileAtomic(dst, weightData); err != nil {
			return report, fmt.Errorf("failed to back up weight file: %w", err)
		}
		report.BackedUp = append(report.BackedUp, dst)
	}

	report.MealsImported = len(meals.Meals) > 0 || len(meals.FoodDatabase) > 0
	err = m.projector.atomic.RunAtomic(ctx, func(ctx context.Context) error {
		if report.MealsImported {
			if err := m.projector.ImportMeals(ctx, meals); err != nil {
				return fmt.Errorf("failed to import meals: %w", err)
			}
		}
		if err := m.projector.ImportWeight(ctx, weight); err != nil {
			return fmt.Errorf("failed to import weight: %w", err)
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	return m.verify(ctx, report, meals, weight)
}

func (m *Migrator) verify(ctx context.Context, report Report, meals MealsDocument, weight WeightDocument) (Report, error) {
	gotMeals, err := m.projector.ExportMeals(ctx)
	if err != nil {
		return report, err
	}
	gotWeight, err := m.projector.ExportWeight(ctx)
	if err != nil {
		return report, err
	}

	report.FoodItems = len(gotMeals.FoodDatabase)
	report.Days = len(gotMeals.Meals)
	report.WeightEntries = len(gotWeight.Weight.Daily)
	report.Goal = gotWeight.Weight.Goal

	if report.MealsImported && (report.FoodItems != len(meals.FoodDatabase) || report.Days != len(meals.Meals)) {
		return report, fmt.Errorf("%w: imported %d foods and %d days, document has %d and %d",
			apperrors.ErrInvariantBreach, report.FoodItems, report.Days, len(meals.FoodDatabase), len(meals.Meals))
	}
	if report.WeightEntries != len(weight.Weight.Daily) || report.Goal != weight.Weight.Goal {
		return report, fmt.Errorf("%w: imported %d weight entries with goal %v, document has %d with goal %v",
			apperrors.ErrInvariantBreach, report.WeightEntries, report.Goal, len(weight.Weight.Daily), weight.Weight.Goal)
	}
	return report, nil
}

func readOptional(path string) ([]byte, bool, error) {
	if path == "" {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, true, nil
}
