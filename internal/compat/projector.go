// Package compat maps the normalized stores to and from the flat JSON
// documents used by external callers and the legacy file format.
package compat

import (
	"context"

	"github.com/julianstephens/sqirvy-health/internal/constants"
	"github.com/julianstephens/sqirvy-health/internal/models"
	"github.com/julianstephens/sqirvy-health/internal/storage"
)

// Atomic runs a function as one unit of work
type Atomic interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// Projector composes the three stores into documents and back
type Projector struct {
	atomic  Atomic
	foods   storage.FoodCatalog
	meals   storage.MealLedger
	weights storage.WeightLedger
}

func NewProjector(atomic Atomic, foods storage.FoodCatalog, meals storage.MealLedger, weights storage.WeightLedger) *Projector {
	return &Projector{atomic: atomic, foods: foods, meals: meals, weights: weights}
}

// ExportMeals builds the meals document from the catalog and every day
func (p *Projector) ExportMeals(ctx context.Context) (MealsDocument, error) {
	foods, err := p.foods.ListAll(ctx)
	if err != nil {
		return MealsDocument{}, err
	}
	days, err := p.meals.ListAllDays(ctx)
	if err != nil {
		return MealsDocument{}, err
	}

	doc := MealsDocument{
		Meals:        make([]DayDocument, 0, len(days)),
		FoodDatabase: make([]FoodDocument, 0, len(foods)),
	}
	for _, day := range days {
		doc.Meals = append(doc.Meals, dayToDocument(day))
	}
	for _, f := range foods {
		doc.FoodDatabase = append(doc.FoodDatabase, FoodDocument{Name: f.Name, Unit: string(f.Unit), Kcal: f.Kcal})
	}
	return doc, nil
}

func dayToDocument(day models.Day) DayDocument {
	total := day.Record.TotalKcal
	doc := DayDocument{
		Date:      day.Record.Date,
		TotalKcal: &total,
		Slots:     make(map[models.Slot][]ItemDocument, len(models.Slots)),
	}
	for _, slot := range models.Slots {
		items := make([]ItemDocument, 0, len(day.Buckets[slot]))
		for _, item := range day.Buckets[slot] {
			qty := item.Quantity
			items = append(items, ItemDocument{
				ID:       formatID(item.ID),
				Name:     item.Food.Name,
				Unit:     string(item.Food.Unit),
				Kcal:     item.Food.Kcal,
				Quantity: &qty,
			})
		}
		doc.Slots[slot] = items
	}
	return doc
}

// DayFromDocument converts a document day into a store day. A missing
// totalKcal is computed from the items; a present one is kept as given.
func DayFromDocument(doc DayDocument) models.Day {
	day := models.NewDay(models.MealRecord{Date: doc.Date})
	for _, slot := range models.Slots {
		for _, item := range doc.Slots[slot] {
			qty := constants.DefaultQuantity
			if item.Quantity != nil && *item.Quantity > 0 {
				qty = *item.Quantity
			}
			day.Add(models.MealItem{
				Food:     models.FoodSnapshot{Name: item.Name, Unit: models.Unit(item.Unit), Kcal: item.Kcal},
				Slot:     slot,
				Quantity: qty,
			})
		}
	}
	if doc.TotalKcal != nil {
		day.Record.TotalKcal = *doc.TotalKcal
	} else {
		day.Record.TotalKcal = day.ItemKcal()
	}
	return day
}

// ImportMeals replaces every day and the whole catalog with the document in a
// single unit of work.
func (p *Projector) ImportMeals(ctx context.Context, doc MealsDocument) error {
	doc = doc.normalized()

	days := make([]models.Day, 0, len(doc.Meals))
	for _, d := range doc.Meals {
		days = append(days, DayFromDocument(d))
	}
	foods := make([]models.FoodItem, 0, len(doc.FoodDatabase))
	for _, f := range doc.FoodDatabase {
		foods = append(foods, models.FoodItem{Name: f.Name, Unit: models.Unit(f.Unit), Kcal: f.Kcal})
	}

	return p.atomic.RunAtomic(ctx, func(ctx context.Context) error {
		if err := p.meals.ReplaceAll(ctx, days); err != nil {
			return err
		}
		return p.foods.ReplaceAll(ctx, foods)
	})
}

// ExportWeight builds the weight document. No active goal exports as 0.
func (p *Projector) ExportWeight(ctx context.Context) (WeightDocument, error) {
	goal, found, err := p.weights.GetActiveGoal(ctx)
	if err != nil {
		return WeightDocument{}, err
	}
	entries, err := p.weights.ListAll(ctx)
	if err != nil {
		return WeightDocument{}, err
	}

	doc := WeightDocument{Weight: WeightBody{Daily: make([]WeightEntryDocument, 0, len(entries))}}
	if found {
		doc.Weight.Goal = goal.GoalWeight
	}
	for _, e := range entries {
		doc.Weight.Daily = append(doc.Weight.Daily, WeightEntryDocument{Date: e.Date, Weight: e.Weight})
	}
	return doc, nil
}

// ImportWeight replaces the goal and every entry. A zero goal means none.
func (p *Projector) ImportWeight(ctx context.Context, doc WeightDocument) error {
	doc = doc.normalized()

	var goal *float64
	if doc.Weight.Goal != 0 {
		g := doc.Weight.Goal
		goal = &g
	}
	entries := make([]models.WeightEntry, 0, len(doc.Weight.Daily))
	for _, e := range doc.Weight.Daily {
		entries = append(entries, models.WeightEntry{Date: e.Date, Weight: e.Weight})
	}

	return p.atomic.RunAtomic(ctx, func(ctx context.Context) error {
		return p.weights.ReplaceAll(ctx, goal, entries)
	})
}
