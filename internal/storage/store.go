package storage

import (
	"time"

	"github.com/zapfit/zapfit-backend/internal/models"
)

// Store defines the interface for storage operations
type Store interface {
	// User operations (profiles are created by the app signup flow)
	GetUserByPhone(phone string) (*models.User, error)
	UpdateUserActivity(userID uint, at time.Time) error
	GetQuietPremiumUsers(inactiveDays int) ([]*models.User, error)

	// Message log operations
	CreateMessageLog(entry *models.MessageLog) error
	CountInboundSince(userID uint, since time.Time) (int64, error)
	// GetRecentMessages returns up to limit messages with ID below beforeID,
	// newest first.
	GetRecentMessages(userID uint, limit int, beforeID uint) ([]*models.MessageLog, error)

	// Health tracking operations
	CreateWeightLog(entry *models.WeightLog) error
	// AddWaterIntake adds ml to the user's row for the given day (creating it
	// if needed) and returns the day's new total. The increment is atomic.
	AddWaterIntake(userID uint, day time.Time, ml int) (int, error)
	SumWaterSince(userID uint, since time.Time) (int64, error)

	// Meal operations
	CreateMeal(meal *models.Meal) error
	CountMealsSince(userID uint, since time.Time) (int64, error)

	// Workout operations
	GetWorkoutTemplates(limit int) ([]*models.WorkoutTemplate, error)
	CountWorkoutsSince(userID uint, since time.Time) (int64, error)

	// Admin operations
	GetUsageStats() (*models.UsageStats, error)
}

// StartOfDay truncates t to midnight in its location. Water and weight rows
// are keyed by this value.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
