package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/sqirvy-health/internal/database"
	"github.com/julianstephens/sqirvy-health/internal/models"
)

// WeightStore is the weight ledger backed by weight_entries and weight_goals
type WeightStore struct {
	db *database.DB
}

func NewWeightStore(db *database.DB) *WeightStore {
	return &WeightStore{db: db}
}

const goalColumns = "id, goal_weight, is_active, created_at"

func scanEntry(scan func(dest ...any) error) (models.WeightEntry, error) {
	var (
		e  models.WeightEntry
		ts string
	)
	if err := scan(&e.Date, &e.Weight, &ts); err != nil {
		return models.WeightEntry{}, err
	}
	e.CreatedAt = parseTimestamp(ts)
	return e, nil
}

func scanGoal(scan func(dest ...any) error) (models.WeightGoal, error) {
	var (
		g  models.WeightGoal
		ts string
	)
	if err := scan(&g.ID, &g.GoalWeight, &g.IsActive, &ts); err != nil {
		return models.WeightGoal{}, err
	}
	g.CreatedAt = parseTimestamp(ts)
	return g, nil
}

// ListAll returns every entry, newest date first
func (s *WeightStore) ListAll(ctx context.Context) ([]models.WeightEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT date, weight, created_at FROM weight_entries ORDER BY date DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list weight entries: %w", err)
	}
	defer rows.Close()

	entries := []models.WeightEntry{}
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, database.Classify(err)
		}
		entries = append(entries, e)
	}
	return entries, database.Classify(rows.Err())
}

// FindByDate returns the entry for date, if any
func (s *WeightStore) FindByDate(ctx context.Context, date string) (models.WeightEntry, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT date, weight, created_at FROM weight_entries WHERE date = ?", date)
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WeightEntry{}, false, nil
	}
	if err != nil {
		return models.WeightEntry{}, false, fmt.Errorf("failed to load weight for %s: %w", date, err)
	}
	return e, true, nil
}

// Upsert records weight for date, replacing any existing value
func (s *WeightStore) Upsert(ctx context.Context, date string, weight float64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO weight_entries (date, weight, created_at) VALUES (?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET weight = excluded.weight`,
		date, weight, timestamp(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to save weight for %s: %w", date, err)
	}
	return affected(res)
}

// DeleteByDate removes the entry for date. A missing entry is not an error.
func (s *WeightStore) DeleteByDate(ctx context.Context, date string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM weight_entries WHERE date = ?", date); err != nil {
		return fmt.Errorf("failed to delete weight for %s: %w", date, err)
	}
	return nil
}

// GetActiveGoal returns the most recent active goal
func (s *WeightStore) GetActiveGoal(ctx context.Context) (models.WeightGoal, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+goalColumns+" FROM weight_goals WHERE is_active = TRUE ORDER BY created_at DESC, id DESC LIMIT 1")
	g, err := scanGoal(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WeightGoal{}, false, nil
	}
	if err != nil {
		return models.WeightGoal{}, false, fmt.Errorf("failed to load goal: %w", err)
	}
	return g, true, nil
}

// SetGoal deactivates every goal and inserts goalWeight as the active one
func (s *WeightStore) SetGoal(ctx context.Context, goalWeight float64) (int64, error) {
	var id int64
	err := s.db.RunAtomic(ctx, func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx, "UPDATE weight_goals SET is_active = FALSE WHERE is_active = TRUE"); err != nil {
			return fmt.Errorf("failed to deactivate goals: %w", err)
		}
		var err error
		id, err = s.insertGoal(ctx, goalWeight)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *WeightStore) insertGoal(ctx context.Context, goalWeight float64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO weight_goals (goal_weight, is_active, created_at) VALUES (?, TRUE, ?) RETURNING id",
		goalWeight, timestamp(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert goal: %w", err)
	}
	return id, nil
}

// ListGoals returns goal history, newest first
func (s *WeightStore) ListGoals(ctx context.Context) ([]models.WeightGoal, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+goalColumns+" FROM weight_goals ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := []models.WeightGoal{}
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, database.Classify(err)
		}
		goals = append(goals, g)
	}
	return goals, database.Classify(rows.Err())
}

// CountActiveGoals returns how many goals are flagged active
func (s *WeightStore) CountActiveGoals(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM weight_goals WHERE is_active = TRUE").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count goals: %w", err)
	}
	return n, nil
}

// ReplaceAll clears entries and goals, then inserts goal (when non-nil) as
// the active goal followed by every entry. Runs as one unit of work.
func (s *WeightStore) ReplaceAll(ctx context.Context, goal *float64, entries []models.WeightEntry) error {
	return s.db.RunAtomic(ctx, func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM weight_entries"); err != nil {
			return fmt.Errorf("failed to clear weight entries: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "DELETE FROM weight_goals"); err != nil {
			return fmt.Errorf("failed to clear goals: %w", err)
		}
		if goal != nil {
			if _, err := s.insertGoal(ctx, *goal); err != nil {
				return err
			}
		}
		for _, e := range entries {
			if _, err := s.db.ExecContext(ctx,
				"INSERT INTO weight_entries (date, weight, created_at) VALUES (?, ?, ?)",
				e.Date, e.Weight, timestamp(),
			); err != nil {
				return fmt.Errorf("failed to insert weight for %s: %w", e.Date, err)
			}
		}
		return nil
	})
}
