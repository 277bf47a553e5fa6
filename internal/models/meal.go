package models

import (
	"time"

	"gorm.io/gorm"
)

// Meal is one logged meal with the nutrition snapshot estimated from a photo
type Meal struct {
	gorm.Model

	UserID      uint      `json:"user_id" gorm:"index"`
	AteAt       time.Time `json:"ate_at"`
	Description string    `json:"description"`
	Calories    float64   `json:"calories"`
	ProteinG    float64   `json:"protein_g"`
	CarbsG      float64   `json:"carbs_g"`
	FatG        float64   `json:"fat_g"`
	PhotoURL    string    `json:"photo_url"`
	RawAnalysis string    `json:"raw_analysis" gorm:"type:text"` // JSON block as returned by the vision model
}
