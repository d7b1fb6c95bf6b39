package models

import "time"

// Unit is the serving unit a food is measured in
type Unit string

const (
	UnitServing    Unit = "serving"
	UnitCup        Unit = "cup"
	UnitTablespoon Unit = "tablespoon"
	UnitOunce      Unit = "ounce"
	UnitGram       Unit = "gram"
	UnitSmall      Unit = "small"
	UnitMedium     Unit = "medium"
	UnitLarge      Unit = "large"
	UnitSlice      Unit = "slice"
	UnitPiece      Unit = "piece"
	UnitBowl       Unit = "bowl"
	UnitPlate      Unit = "plate"
	UnitBunch      Unit = "bunch"
	UnitCan        Unit = "can"
)

// Units lists every accepted unit. Storage keeps unit as free text so legacy
// rows with other values still load; the list is enforced on user input only.
var Units = []Unit{
	UnitServing, UnitCup, UnitTablespoon, UnitOunce, UnitGram, UnitSmall, UnitMedium,
	UnitLarge, UnitSlice, UnitPiece, UnitBowl, UnitPlate, UnitBunch, UnitCan,
}

// Valid reports whether u is one of Units
func (u Unit) Valid() bool {
	for _, known := range Units {
		if u == known {
			return true
		}
	}
	return false
}

// FoodItem is a reusable catalog entry
type FoodItem struct {
	ID        int64
	Name      string
	Unit      Unit
	Kcal      float64
	CreatedAt time.Time
}

// Snapshot copies the catalog values into a meal item value
func (f FoodItem) Snapshot() FoodSnapshot {
	return FoodSnapshot{Name: f.Name, Unit: f.Unit, Kcal: f.Kcal}
}

// FoodSnapshot is the name/unit/kcal triple copied onto a meal item at log
// time. Later catalog edits never reach it.
type FoodSnapshot struct {
	Name string
	Unit Unit
	Kcal float64
}
