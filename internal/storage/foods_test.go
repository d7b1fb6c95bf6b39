package storage

import (
	"context"
	"testing"

	"github.com/julianstephens/sqirvy-health/internal/models"
)

func TestFoodListAllOrderedByName(t *testing.T) {
	s, cleanup := setupTestStores(t)
	defer cleanup()
	ctx := context.Background()

	items, err := s.foods.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("ListAll() on empty catalog = %d items, want 0", len(items))
	}

	for _, name := range []string{"Oatmeal", "Apple", "Banana"} {
		if _, err := s.foods.Add(ctx, name, models.UnitServing, 100); err != nil {
			t.Fatalf("Add(%s) failed: %v", name, err)
		}
	}

	items, err = s.foods.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	want := []string{"Apple", "Banana", "Oatmeal"}
	for i, item := range items {
		if item.Name != want[i] {
			t.Errorf("ListAll()[%d].Name = %q, want %q", i, item.Name, want[i])
		}
	}
}

func TestFoodFindByName(t *testing.T) {
	s, cleanup := setupTestStores(t)
	defer cleanup()
	ctx := context.Background()

	firstID, err := s.foods.Add(ctx, "Apple", models.UnitMedium, 95)
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	// duplicates are allowed at this layer
	if _, err := s.foods.Add(ctx, "Apple", models.UnitLarge, 120); err != nil {
		t.Fatalf("second Add() failed: %v", err)
	}

	item, found, err := s.foods.FindByName(ctx, "Apple")
	if err != nil || !found {
		t.Fatalf("FindByName() = %v, %v, want found", found, err)
	}
	if item.ID != firstID || item.Unit != models.UnitMedium || item.Kcal != 95 {
		t.Errorf("FindByName() = %+v, want first inserted row", item)
	}

	if _, found, err := s.foods.FindByName(ctx, "apple"); err != nil || found {
		t.Errorf("FindByName(lowercase) found = %v, err = %v, want not found", found, err)
	}
}

func TestFoodFindMatch(t *testing.T) {
	s, cleanup := setupTestStores(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := s.foods.Add(ctx, "Greek Yogurt", models.UnitCup, 130); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	tests := []struct {
		name  string
		query string
		unit  models.Unit
		want  bool
	}{
		{"exact", "Greek Yogurt", models.UnitCup, true},
		{"case and space", "  greek yogurt ", models.UnitCup, true},
		{"other unit", "Greek Yogurt", models.UnitBowl, false},
		{"other name", "Yogurt", models.UnitCup, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, found, err := s.foods.FindMatch(ctx, tt.query, tt.unit)
			if err != nil {
				t.Fatalf("FindMatch() failed: %v", err)
			}
			if found != tt.want {
				t.Errorf("FindMatch(%q, %s) = %v, want %v", tt.query, tt.unit, found, tt.want)
			}
		})
	}
}

func TestFoodReplaceAll(t *testing.T) {
	s, cleanup := setupTestStores(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := s.foods.Add(ctx, "Old", models.UnitServing, 10); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	err := s.foods.ReplaceAll(ctx, []models.FoodItem{
		{Name: "Egg", Unit: models.UnitPiece, Kcal: 70},
		{Name: "Toast", Unit: models.UnitSlice, Kcal: 80},
	})
	if err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}

	items, _ := s.foods.ListAll(ctx)
	if len(items) != 2 || items[0].Name != "Egg" || items[1].Name != "Toast" {
		t.Errorf("ListAll() after ReplaceAll = %+v", items)
	}
}

func TestFoodSearch(t *testing.T) {
	s, cleanup := setupTestStores(t)
	defer cleanup()
	ctx := context.Background()

	for _, name := range []string{"Pineapple", "Apple pie", "apple", "Banana", "Crab apple", "Éclair"} {
		if _, err := s.foods.Add(ctx, name, models.UnitServing, 100); err != nil {
			t.Fatalf("Add(%s) failed: %v", name, err)
		}
	}

	got, err := s.foods.Search(ctx, "APP", 0)
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	var names []string
	for _, item := range got {
		names = append(names, item.Name)
	}
	want := []string{"apple", "Apple pie", "Crab apple", "Pineapple"}
	if len(names) != len(want) {
		t.Fatalf("Search(APP) = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Search(APP)[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if got, _ := s.foods.Search(ctx, "éc", 0); len(got) != 1 {
		t.Errorf("Search(éc) = %d results, want 1", len(got))
	}
	if got, _ := s.foods.Search(ctx, "a", 0); len(got) != 0 {
		t.Errorf("Search(single char) = %d results, want 0", len(got))
	}
	if got, _ := s.foods.Search(ctx, "app", 2); len(got) != 2 {
		t.Errorf("Search(limit 2) = %d results, want 2", len(got))
	}
}
