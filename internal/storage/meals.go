package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/sqirvy-health/internal/constants"
	"github.com/julianstephens/sqirvy-health/internal/database"
	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
	"github.com/julianstephens/sqirvy-health/internal/models"
)

// MealStore is the meal ledger backed by meals and meal_items
type MealStore struct {
	db *database.DB
}

func NewMealStore(db *database.DB) *MealStore {
	return &MealStore{db: db}
}

const (
	mealColumns = "id, date, total_kcal, created_at, updated_at"
	itemColumns = "id, meal_id, food_item_name, food_item_unit, food_item_kcal, meal_category, quantity, created_at"
	// items come back in creation order; bucketing by slot gives slot-then-time order
	itemOrder = "ORDER BY created_at ASC, id ASC"
)

func scanMeal(scan func(dest ...any) error) (models.MealRecord, error) {
	var (
		rec                  models.MealRecord
		createdAt, updatedAt string
	)
	if err := scan(&rec.ID, &rec.Date, &rec.TotalKcal, &createdAt, &updatedAt); err != nil {
		return models.MealRecord{}, err
	}
	rec.CreatedAt = parseTimestamp(createdAt)
	rec.UpdatedAt = parseTimestamp(updatedAt)
	return rec, nil
}

func scanItem(scan func(dest ...any) error) (models.MealItem, error) {
	var (
		item           models.MealItem
		unit, slot, ts string
	)
	if err := scan(&item.ID, &item.MealRecordID, &item.Food.Name, &unit, &item.Food.Kcal, &slot, &item.Quantity, &ts); err != nil {
		return models.MealItem{}, err
	}
	item.Food.Unit = models.Unit(unit)
	item.Slot = models.Slot(slot)
	item.CreatedAt = parseTimestamp(ts)
	return item, nil
}

func (s *MealStore) queryItems(ctx context.Context, query string, args ...any) ([]models.MealItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.MealItem
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, database.Classify(err)
		}
		items = append(items, item)
	}
	return items, database.Classify(rows.Err())
}

// GetDay returns the day for date with its items bucketed by slot.
// found is false when nothing has been logged for that date yet.
func (s *MealStore) GetDay(ctx context.Context, date string) (models.Day, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+mealColumns+" FROM meals WHERE date = ?", date)
	rec, err := scanMeal(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Day{}, false, nil
	}
	if err != nil {
		return models.Day{}, false, fmt.Errorf("failed to load day %s: %w", date, err)
	}

	items, err := s.queryItems(ctx, "SELECT "+itemColumns+" FROM meal_items WHERE meal_id = ? "+itemOrder, rec.ID)
	if err != nil {
		return models.Day{}, false, fmt.Errorf("failed to load items for %s: %w", date, err)
	}

	day := models.NewDay(rec)
	for _, item := range items {
		day.Add(item)
	}
	return day, true, nil
}

// ListAllDays returns every day, newest date first
func (s *MealStore) ListAllDays(ctx context.Context) ([]models.Day, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+mealColumns+" FROM meals ORDER BY date DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}
	var records []models.MealRecord
	for rows.Next() {
		rec, err := scanMeal(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, database.Classify(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, database.Classify(err)
	}
	rows.Close()

	items, err := s.queryItems(ctx, "SELECT "+itemColumns+" FROM meal_items "+itemOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	byMeal := make(map[int64][]models.MealItem, len(records))
	for _, item := range items {
		byMeal[item.MealRecordID] = append(byMeal[item.MealRecordID], item)
	}

	days := make([]models.Day, 0, len(records))
	for _, rec := range records {
		day := models.NewDay(rec)
		for _, item := range byMeal[rec.ID] {
			day.Add(item)
		}
		days = append(days, day)
	}
	return days, nil
}

// CreateDay inserts an empty day. A second day for the same date is a
// constraint violation.
func (s *MealStore) CreateDay(ctx context.Context, date string, initialTotal float64) (int64, error) {
	now := timestamp()
	var id int64
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO meals (date, total_kcal, created_at, updated_at) VALUES (?, ?, ?, ?) RETURNING id",
		date, initialTotal, now, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create day %s: %w", date, err)
	}
	return id, nil
}

// DeleteDay removes a day and, by cascade, its items
func (s *MealStore) DeleteDay(ctx context.Context, date string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM meals WHERE date = ?", date)
	if err != nil {
		return false, fmt.Errorf("failed to delete day %s: %w", date, err)
	}
	return affected(res)
}

// SetDayTotal stores a new cached total and touches updated_at
func (s *MealStore) SetDayTotal(ctx context.Context, mealRecordID int64, total float64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE meals SET total_kcal = ?, updated_at = ? WHERE id = ?",
		total, timestamp(), mealRecordID,
	)
	if err != nil {
		return fmt.Errorf("failed to set total for day %d: %w", mealRecordID, err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("meal record %d: %w", mealRecordID, apperrors.ErrNotFound)
	}
	return nil
}

// RecomputeTotal re-reads the day, sums its items and stores the result.
// This is the second half of every item write.
func (s *MealStore) RecomputeTotal(ctx context.Context, date string) (models.Day, error) {
	var day models.Day
	err := s.db.RunAtomic(ctx, func(ctx context.Context) error {
		d, found, err := s.GetDay(ctx, date)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("day %s: %w", date, apperrors.ErrNotFound)
		}
		total := d.ItemKcal()
		if err := s.SetDayTotal(ctx, d.Record.ID, total); err != nil {
			return err
		}
		d.Record.TotalKcal = total
		day = d
		return nil
	})
	return day, err
}

// AddItem logs a food snapshot under a day and slot. A quantity of zero or
// less is stored as 1. The day total is not touched.
func (s *MealStore) AddItem(ctx context.Context, mealRecordID int64, food models.FoodSnapshot, slot models.Slot, quantity float64) (int64, error) {
	if quantity <= 0 {
		quantity = constants.DefaultQuantity
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO meal_items
			(meal_id, food_item_name, food_item_unit, food_item_kcal, meal_category, quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		mealRecordID, food.Name, string(food.Unit), food.Kcal, string(slot), quantity, timestamp(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to add %q to day %d: %w", food.Name, mealRecordID, err)
	}
	return id, nil
}

// GetItem loads one logged item
func (s *MealStore) GetItem(ctx context.Context, itemID int64) (models.MealItem, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM meal_items WHERE id = ?", itemID)
	item, err := scanItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MealItem{}, false, nil
	}
	if err != nil {
		return models.MealItem{}, false, fmt.Errorf("failed to load item %d: %w", itemID, err)
	}
	return item, true, nil
}

// UpdateItem rewrites the food snapshot of a logged item
func (s *MealStore) UpdateItem(ctx context.Context, itemID int64, food models.FoodSnapshot) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE meal_items SET food_item_name = ?, food_item_unit = ?, food_item_kcal = ? WHERE id = ?",
		food.Name, string(food.Unit), food.Kcal, itemID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update item %d: %w", itemID, err)
	}
	return affected(res)
}

// DeleteItem removes a logged item
func (s *MealStore) DeleteItem(ctx context.Context, itemID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM meal_items WHERE id = ?", itemID)
	if err != nil {
		return false, fmt.Errorf("failed to delete item %d: %w", itemID, err)
	}
	return affected(res)
}

// ReplaceAll discards every day and item and inserts days in one unit of
// work. Each day keeps the total it carries; items are inserted slot by slot
// in canonical order.
func (s *MealStore) ReplaceAll(ctx context.Context, days []models.Day) error {
	return s.db.RunAtomic(ctx, func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM meal_items"); err != nil {
			return fmt.Errorf("failed to clear meal items: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "DELETE FROM meals"); err != nil {
			return fmt.Errorf("failed to clear days: %w", err)
		}

		for _, day := range days {
			id, err := s.CreateDay(ctx, day.Record.Date, day.Record.TotalKcal)
			if err != nil {
				return err
			}
			for _, slot := range models.Slots {
				for _, item := range day.Buckets[slot] {
					if _, err := s.AddItem(ctx, id, item.Food, slot, item.Quantity); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, database.Classify(err)
	}
	return n > 0, nil
}
