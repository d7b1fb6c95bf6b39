package compat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/julianstephens/sqirvy-health/internal/models"
)

// MealsDocument is the hierarchical meals shape exchanged with callers
type MealsDocument struct {
	Meals        []DayDocument  `json:"meals"`
	FoodDatabase []FoodDocument `json:"foodDatabase"`
}

// FoodDocument is one catalog entry
type FoodDocument struct {
	Name string  `json:"name"`
	Unit string  `json:"unit"`
	Kcal float64 `json:"kcal"`
}

// ItemDocument is one logged food inside a slot list
type ItemDocument struct {
	ID       ItemID   `json:"id"`
	Name     string   `json:"name"`
	Unit     string   `json:"unit"`
	Kcal     float64  `json:"kcal"`
	Quantity *float64 `json:"quantity,omitempty"`
}

// ItemID is written as a string and read from either a string or a number.
// Stored ids never come from it.
type ItemID string

func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id must be a string or number: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

// DayDocument is one day with its six slot lists
type DayDocument struct {
	Date string
	// TotalKcal is nil when the document omitted it
	TotalKcal *float64
	// Slots holds only the slot keys that were present as lists
	Slots map[models.Slot][]ItemDocument
}

type dayJSON struct {
	Date           string         `json:"date"`
	TotalKcal      float64        `json:"totalKcal"`
	Breakfast      []ItemDocument `json:"breakfast"`
	MorningSnack   []ItemDocument `json:"morning_snack"`
	Lunch          []ItemDocument `json:"lunch"`
	AfternoonSnack []ItemDocument `json:"afternoon_snack"`
	Dinner         []ItemDocument `json:"dinner"`
	EveningSnack   []ItemDocument `json:"evening_snack"`
}

func nonNil(items []ItemDocument) []ItemDocument {
	if items == nil {
		return []ItemDocument{}
	}
	return items
}

// MarshalJSON writes every slot, in canonical order, as a list
func (d DayDocument) MarshalJSON() ([]byte, error) {
	var total float64
	if d.TotalKcal != nil {
		total = *d.TotalKcal
	}
	return json.Marshal(dayJSON{
		Date:           d.Date,
		TotalKcal:      total,
		Breakfast:      nonNil(d.Slots[models.SlotBreakfast]),
		MorningSnack:   nonNil(d.Slots[models.SlotMorningSnack]),
		Lunch:          nonNil(d.Slots[models.SlotLunch]),
		AfternoonSnack: nonNil(d.Slots[models.SlotAfternoonSnack]),
		Dinner:         nonNil(d.Slots[models.SlotDinner]),
		EveningSnack:   nonNil(d.Slots[models.SlotEveningSnack]),
	})
}

// UnmarshalJSON reads a day, skipping slot keys that are absent or not lists
func (d *DayDocument) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := DayDocument{Slots: map[models.Slot][]ItemDocument{}}
	if v, ok := raw["date"]; ok {
		if err := json.Unmarshal(v, &out.Date); err != nil {
			return fmt.Errorf("day date: %w", err)
		}
	}
	if v, ok := raw["totalKcal"]; ok && !isNull(v) {
		var total float64
		if err := json.Unmarshal(v, &total); err != nil {
			return fmt.Errorf("day %s totalKcal: %w", out.Date, err)
		}
		out.TotalKcal = &total
	}

	for _, slot := range models.Slots {
		v, ok := raw[string(slot)]
		if !ok || !isList(v) {
			continue
		}
		var items []ItemDocument
		if err := json.Unmarshal(v, &items); err != nil {
			return fmt.Errorf("day %s slot %s: %w", out.Date, slot, err)
		}
		out.Slots[slot] = items
	}

	*d = out
	return nil
}

func isList(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// WeightDocument is the weight shape exchanged with callers
type WeightDocument struct {
	Weight WeightBody `json:"weight"`
}

// WeightBody holds the goal (0 means none) and the daily entries
type WeightBody struct {
	Goal  float64               `json:"goal"`
	Daily []WeightEntryDocument `json:"daily"`
}

type WeightEntryDocument struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}

// DecodeMeals parses a meals document. Missing arrays decode as empty.
func DecodeMeals(data []byte) (MealsDocument, error) {
	var doc MealsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return MealsDocument{}, fmt.Errorf("invalid meals document: %w", err)
	}
	return doc.normalized(), nil
}

// DecodeWeight parses a weight document. Missing fields decode as empty.
func DecodeWeight(data []byte) (WeightDocument, error) {
	var doc WeightDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return WeightDocument{}, fmt.Errorf("invalid weight document: %w", err)
	}
	return doc.normalized(), nil
}

// Encode renders a document as indented JSON with a trailing newline
func Encode(doc any) ([]byte, error) {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func (doc MealsDocument) normalized() MealsDocument {
	if doc.Meals == nil {
		doc.Meals = []DayDocument{}
	}
	if doc.FoodDatabase == nil {
		doc.FoodDatabase = []FoodDocument{}
	}
	return doc
}

func (doc WeightDocument) normalized() WeightDocument {
	if doc.Weight.Daily == nil {
		doc.Weight.Daily = []WeightEntryDocument{}
	}
	return doc
}

func formatID(id int64) ItemID {
	return ItemID(strconv.FormatInt(id, 10))
}
