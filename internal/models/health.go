package models

import (
	"time"

	"gorm.io/gorm"
)

// WeightLog is one weight measurement reported by the user
type WeightLog struct {
	gorm.Model

	UserID   uint      `json:"user_id" gorm:"index"`
	Date     time.Time `json:"date"`
	WeightKg float64   `json:"weight_kg"`
}

// WaterIntake accumulates water for one user on one day. There is at most one
// row per user/day; increments are additive.
type WaterIntake struct {
	gorm.Model

	UserID     uint      `json:"user_id" gorm:"uniqueIndex:idx_water_user_day"`
	Date       time.Time `json:"date" gorm:"uniqueIndex:idx_water_user_day"`
	MlConsumed int       `json:"ml_consumed"`
}
