package models

import (
	"time"

	"gorm.io/gorm"
)

// WorkoutTemplate is a workout plan built in the app (read-only here)
type WorkoutTemplate struct {
	gorm.Model

	Name        string `json:"name"`
	Focus       string `json:"focus"` // e.g. "pernas", "full body"
	Level       string `json:"level"` // "iniciante" | "intermediário" | "avançado"
	DurationMin int    `json:"duration_min"`
}

// WorkoutSession is one completed workout
type WorkoutSession struct {
	gorm.Model

	UserID            uint      `json:"user_id" gorm:"index"`
	WorkoutTemplateID uint      `json:"workout_template_id"`
	CompletedAt       time.Time `json:"completed_at"`
}

// UsageStats is the aggregate snapshot served to the admin panel
type UsageStats struct {
	TotalUsers      int64 `json:"total_users"`
	PremiumUsers    int64 `json:"premium_users"`
	MessagesLast24h int64 `json:"messages_last_24h"`
	MealsLast24h    int64 `json:"meals_last_24h"`
}
