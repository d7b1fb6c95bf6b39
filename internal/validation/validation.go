// Package validation checks user input before it reaches the stores.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/julianstephens/sqirvy-health/internal/constants"
	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
	"github.com/julianstephens/sqirvy-health/internal/models"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Date checks that s is a real calendar date in YYYY-MM-DD form
func Date(s string) error {
	if !datePattern.MatchString(s) {
		return invalid("invalid date %q, use YYYY-MM-DD", s)
	}
	if _, err := time.Parse(constants.DateFormat, s); err != nil {
		return invalid("invalid date %q, use YYYY-MM-DD", s)
	}
	return nil
}

// Unit parses one of the accepted serving units
func Unit(s string) (models.Unit, error) {
	u := models.Unit(strings.TrimSpace(strings.ToLower(s)))
	if !u.Valid() {
		return "", invalid("%s", unitProblem())
	}
	return u, nil
}

func unitProblem() string {
	names := make([]string, len(models.Units))
	for i, known := range models.Units {
		names[i] = string(known)
	}
	return "unit must be one of: " + strings.Join(names, ", ")
}

// Slot parses one of the six meal slots
func Slot(s string) (models.Slot, error) {
	slot, err := models.ParseSlot(strings.TrimSpace(strings.ToLower(s)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	return slot, nil
}

// Food checks a food name, unit and calorie value and returns the cleaned snapshot.
// Every problem is reported, joined the way the original API did.
func Food(name, unit string, kcal float64) (models.FoodSnapshot, error) {
	var problems []string

	name = strings.TrimSpace(name)
	if name == "" {
		problems = append(problems, "food name is required")
	}
	u := models.Unit(strings.TrimSpace(strings.ToLower(unit)))
	if !u.Valid() {
		problems = append(problems, unitProblem())
	}
	if !(kcal > 0) || math.IsInf(kcal, 0) {
		problems = append(problems, "calories (kcal) must be a positive number")
	}

	if len(problems) > 0 {
		return models.FoodSnapshot{}, invalid("%s", strings.Join(problems, ". "))
	}
	return models.FoodSnapshot{Name: name, Unit: u, Kcal: kcal}, nil
}

// Weight checks 0 < w <= 1000 and rounds to one decimal place
func Weight(w float64) (float64, error) {
	if !(w > 0) || w > constants.MaxWeight {
		return 0, invalid("weight must be a positive number up to %g", constants.MaxWeight)
	}
	return round1(w), nil
}

// Goal applies the weight bounds to a goal weight
func Goal(g float64) (float64, error) {
	if !(g > 0) || g > constants.MaxWeight {
		return 0, invalid("goal weight must be a positive number up to %g", constants.MaxWeight)
	}
	return round1(g), nil
}

// Quantity defaults non-positive quantities to one
func Quantity(q float64) float64 {
	if !(q > 0) || math.IsInf(q, 0) {
		return constants.DefaultQuantity
	}
	return q
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
