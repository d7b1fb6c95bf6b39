package models

import "time"

// WeightEntry is a single body-weight measurement, one per date
type WeightEntry struct {
	Date      string
	Weight    float64
	CreatedAt time.Time
}

// WeightGoal is one row of goal history. At most one is active.
type WeightGoal struct {
	ID         int64
	GoalWeight float64
	IsActive   bool
	CreatedAt  time.Time
}
