package storage

import (
	"context"

	"github.com/julianstephens/sqirvy-health/internal/models"
)

// FoodCatalog stores reusable food definitions
type FoodCatalog interface {
	ListAll(ctx context.Context) ([]models.FoodItem, error)
	FindByName(ctx context.Context, name string) (models.FoodItem, bool, error)
	FindMatch(ctx context.Context, name string, unit models.Unit) (models.FoodItem, bool, error)
	Add(ctx context.Context, name string, unit models.Unit, kcal float64) (int64, error)
	Search(ctx context.Context, query string, limit int) ([]models.FoodItem, error)
	ReplaceAll(ctx context.Context, items []models.FoodItem) error
}

// MealLedger stores days and the items logged against them.
// AddItem, UpdateItem and DeleteItem leave the cached day total alone; the
// caller re-reads the day and writes the new total with SetDayTotal or
// RecomputeTotal.
type MealLedger interface {
	GetDay(ctx context.Context, date string) (models.Day, bool, error)
	ListAllDays(ctx context.Context) ([]models.Day, error)
	CreateDay(ctx context.Context, date string, initialTotal float64) (int64, error)
	DeleteDay(ctx context.Context, date string) (bool, error)
	SetDayTotal(ctx context.Context, mealRecordID int64, total float64) error
	RecomputeTotal(ctx context.Context, date string) (models.Day, error)
	AddItem(ctx context.Context, mealRecordID int64, food models.FoodSnapshot, slot models.Slot, quantity float64) (int64, error)
	GetItem(ctx context.Context, itemID int64) (models.MealItem, bool, error)
	UpdateItem(ctx context.Context, itemID int64, food models.FoodSnapshot) (bool, error)
	DeleteItem(ctx context.Context, itemID int64) (bool, error)
	ReplaceAll(ctx context.Context, days []models.Day) error
}

// WeightLedger stores weight entries and goal history
type WeightLedger interface {
	ListAll(ctx context.Context) ([]models.WeightEntry, error)
	FindByDate(ctx context.Context, date string) (models.WeightEntry, bool, error)
	Upsert(ctx context.Context, date string, weight float64) (bool, error)
	DeleteByDate(ctx context.Context, date string) error
	GetActiveGoal(ctx context.Context) (models.WeightGoal, bool, error)
	SetGoal(ctx context.Context, goalWeight float64) (int64, error)
	ListGoals(ctx context.Context) ([]models.WeightGoal, error)
	CountActiveGoals(ctx context.Context) (int, error)
	ReplaceAll(ctx context.Context, goal *float64, entries []models.WeightEntry) error
}

var (
	_ FoodCatalog  = (*FoodStore)(nil)
	_ MealLedger   = (*MealStore)(nil)
	_ WeightLedger = (*WeightStore)(nil)
)
