package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/julianstephens/sqirvy-health/internal/constants"
	"github.com/julianstephens/sqirvy-health/internal/database"
	"github.com/julianstephens/sqirvy-health/internal/models"
)

// FoodStore is the food catalog backed by food_items
type FoodStore struct {
	db *database.DB
}

func NewFoodStore(db *database.DB) *FoodStore {
	return &FoodStore{db: db}
}

const foodColumns = "id, name, unit, kcal, created_at"

func scanFood(scan func(dest ...any) error) (models.FoodItem, error) {
	var (
		item      models.FoodItem
		unit      string
		createdAt string
	)
	if err := scan(&item.ID, &item.Name, &unit, &item.Kcal, &createdAt); err != nil {
		return models.FoodItem{}, err
	}
	item.Unit = models.Unit(unit)
	item.CreatedAt = parseTimestamp(createdAt)
	return item, nil
}

func (s *FoodStore) query(ctx context.Context, query string, args ...any) ([]models.FoodItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.FoodItem{}
	for rows.Next() {
		item, err := scanFood(rows.Scan)
		if err != nil {
			return nil, database.Classify(err)
		}
		items = append(items, item)
	}
	return items, database.Classify(rows.Err())
}

// ListAll returns the catalog ordered by name
func (s *FoodStore) ListAll(ctx context.Context) ([]models.FoodItem, error) {
	return s.query(ctx, "SELECT "+foodColumns+" FROM food_items ORDER BY name ASC, id ASC")
}

// FindByName returns the first entry whose name matches exactly
func (s *FoodStore) FindByName(ctx context.Context, name string) (models.FoodItem, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+foodColumns+" FROM food_items WHERE name = ? ORDER BY id ASC LIMIT 1", name)
	item, err := scanFood(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FoodItem{}, false, nil
	}
	if err != nil {
		return models.FoodItem{}, false, fmt.Errorf("failed to find food %q: %w", name, err)
	}
	return item, true, nil
}

// FindMatch looks for an entry with the same unit and the same name after
// trimming and Unicode case folding.
func (s *FoodStore) FindMatch(ctx context.Context, name string, unit models.Unit) (models.FoodItem, bool, error) {
	candidates, err := s.query(ctx, "SELECT "+foodColumns+" FROM food_items WHERE unit = ? ORDER BY id ASC", string(unit))
	if err != nil {
		return models.FoodItem{}, false, fmt.Errorf("failed to match food %q: %w", name, err)
	}
	want := foldName(name)
	for _, item := range candidates {
		if foldName(item.Name) == want {
			return item, true, nil
		}
	}
	return models.FoodItem{}, false, nil
}

// Add inserts a catalog entry without checking for duplicates
func (s *FoodStore) Add(ctx context.Context, name string, unit models.Unit, kcal float64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO food_items (name, unit, kcal, created_at) VALUES (?, ?, ?, ?) RETURNING id",
		name, string(unit), kcal, timestamp(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to add food %q: %w", name, err)
	}
	return id, nil
}

// ReplaceAll swaps the whole catalog for items in one unit of work
func (s *FoodStore) ReplaceAll(ctx context.Context, items []models.FoodItem) error {
	return s.db.RunAtomic(ctx, func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM food_items"); err != nil {
			return fmt.Errorf("failed to clear food catalog: %w", err)
		}
		for _, item := range items {
			if _, err := s.Add(ctx, item.Name, item.Unit, item.Kcal); err != nil {
				return err
			}
		}
		return nil
	})
}

// Search returns up to limit entries whose name contains query, ignoring
// case. Prefix matches come first, then collation order. Queries shorter than
// two characters match nothing.
func (s *FoodStore) Search(ctx context.Context, query string, limit int) ([]models.FoodItem, error) {
	q := foldName(query)
	if len([]rune(q)) < constants.MinSearchQueryLen {
		return []models.FoodItem{}, nil
	}
	if limit <= 0 {
		limit = constants.DefaultSearchLimit
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	type hit struct {
		item   models.FoodItem
		prefix bool
	}
	var hits []hit
	for _, item := range all {
		name := foldName(item.Name)
		if strings.Contains(name, q) {
			hits = append(hits, hit{item: item, prefix: strings.HasPrefix(name, q)})
		}
	}

	coll := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].prefix != hits[j].prefix {
			return hits[i].prefix
		}
		return coll.CompareString(hits[i].item.Name, hits[j].item.Name) < 0
	})

	results := []models.FoodItem{}
	for i := 0; i < len(hits) && i < limit; i++ {
		results = append(results, hits[i].item)
	}
	return results, nil
}

// foldName normalizes a food name for comparison
func foldName(s string) string {
	return norm.NFC.String(cases.Fold().String(strings.TrimSpace(s)))
}
