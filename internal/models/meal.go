package models

import (
	"fmt"
	"time"
)

// Slot is one of the six fixed meal groupings of a day
type Slot string

const (
	SlotBreakfast      Slot = "breakfast"
	SlotMorningSnack   Slot = "morning_snack"
	SlotLunch          Slot = "lunch"
	SlotAfternoonSnack Slot = "afternoon_snack"
	SlotDinner         Slot = "dinner"
	SlotEveningSnack   Slot = "evening_snack"
)

// Slots is the canonical slot order. Iteration over a day always uses it.
var Slots = []Slot{
	SlotBreakfast,
	SlotMorningSnack,
	SlotLunch,
	SlotAfternoonSnack,
	SlotDinner,
	SlotEveningSnack,
}

// Valid reports whether s is one of the six slots
func (s Slot) Valid() bool {
	for _, known := range Slots {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSlot converts a string into a Slot
func ParseSlot(s string) (Slot, error) {
	slot := Slot(s)
	if !slot.Valid() {
		return "", fmt.Errorf("unknown meal slot %q", s)
	}
	return slot, nil
}

// MealRecord is the per-date container with its cached total
type MealRecord struct {
	ID        int64
	Date      string
	TotalKcal float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MealItem is one logged food inside a day
type MealItem struct {
	ID           int64
	MealRecordID int64
	Food         FoodSnapshot
	Slot         Slot
	Quantity     float64
	CreatedAt    time.Time
}

// Day is a meal record with its items partitioned by slot.
// Buckets always holds all six slots, empty ones included.
type Day struct {
	Record  MealRecord
	Buckets map[Slot][]MealItem
}

// NewDay returns a day with six empty buckets
func NewDay(record MealRecord) Day {
	buckets := make(map[Slot][]MealItem, len(Slots))
	for _, slot := range Slots {
		buckets[slot] = []MealItem{}
	}
	return Day{Record: record, Buckets: buckets}
}

// Add appends an item to its slot bucket
func (d *Day) Add(item MealItem) {
	if d.Buckets == nil {
		*d = NewDay(d.Record)
	}
	d.Buckets[item.Slot] = append(d.Buckets[item.Slot], item)
}

// Items returns every item in canonical slot order
func (d Day) Items() []MealItem {
	var items []MealItem
	for _, slot := range Slots {
		items = append(items, d.Buckets[slot]...)
	}
	return items
}

// ItemKcal sums the raw kcal of every item across the six slots.
// Quantity is not applied.
func (d Day) ItemKcal() float64 {
	var total float64
	for _, slot := range Slots {
		for _, item := range d.Buckets[slot] {
			total += item.Food.Kcal
		}
	}
	return total
}

// Find locates an item by id
func (d Day) Find(itemID int64) (MealItem, bool) {
	for _, slot := range Slots {
		for _, item := range d.Buckets[slot] {
			if item.ID == itemID {
				return item, true
			}
		}
	}
	return MealItem{}, false
}
