package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/sqirvy-health/internal/database"
)

type testStores struct {
	db      *database.DB
	foods   *FoodStore
	meals   *MealStore
	weights *WeightStore
}

// setupTestStores opens a migrated SQLite database in a temp dir
func setupTestStores(t *testing.T) (*testStores, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := database.Open(database.Options{Driver: database.SQLite, DSN: dbPath})
	if err != nil {
		t.Fatalf("database.Open() failed: %v", err)
	}
	if _, err := db.Migrate(context.Background(), nil); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	stores := &testStores{
		db:      db,
		foods:   NewFoodStore(db),
		meals:   NewMealStore(db),
		weights: NewWeightStore(db),
	}
	cleanup := func() {
		db.Release()
	}
	return stores, cleanup
}

// tickClock makes every timestamp one millisecond later than the last
func tickClock(t *testing.T) {
	t.Helper()
	base := time.Date(2025, 8, 15, 8, 0, 0, 0, time.UTC)
	n := 0
	old := nowFunc
	nowFunc = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Millisecond)
	}
	t.Cleanup(func() { nowFunc = old })
}

func countRows(t *testing.T, db *database.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("count %s failed: %v", table, err)
	}
	return n
}
