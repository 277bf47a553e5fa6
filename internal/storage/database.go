package storage

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zapfit/zapfit-backend/internal/models"
)

// DatabaseStore implements Store backed by PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("whats_app_phone = ?", phone).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *DatabaseStore) UpdateUserActivity(userID uint, at time.Time) error {
	return s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"last_message_at":  at,
		"whats_app_active": true,
	}).Error
}

func (s *DatabaseStore) GetQuietPremiumUsers(inactiveDays int) ([]*models.User, error) {
	cutoff := time.Now().AddDate(0, 0, -inactiveDays)

	var users []*models.User
	err := s.db.
		Where("plan_type = ? AND whats_app_active = ?", models.PlanPremium, true).
		Where("last_message_at IS NOT NULL AND last_message_at < ?", cutoff).
		Find(&users).Error
	return users, err
}

func (s *DatabaseStore) CreateMessageLog(entry *models.MessageLog) error {
	return s.db.Create(entry).Error
}

func (s *DatabaseStore) CountInboundSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.MessageLog{}).
		Where("user_id = ? AND direction = ? AND created_at >= ?", userID, models.DirectionInbound, since).
		Count(&count).Error
	return count, err
}

func (s *DatabaseStore) GetRecentMessages(userID uint, limit int, beforeID uint) ([]*models.MessageLog, error) {
	var entries []*models.MessageLog
	err := s.db.
		Where("user_id = ? AND id < ?", userID, beforeID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (s *DatabaseStore) CreateWeightLog(entry *models.WeightLog) error {
	return s.db.Create(entry).Error
}

func (s *DatabaseStore) AddWaterIntake(userID uint, day time.Time, ml int) (int, error) {
	day = StartOfDay(day)

	row := models.WaterIntake{UserID: userID, Date: day, MlConsumed: ml}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"ml_consumed": gorm.Expr("water_intakes.ml_consumed + ?", ml),
			"updated_at":  time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return 0, err
	}

	var current models.WaterIntake
	if err := s.db.Where("user_id = ? AND date = ?", userID, day).First(&current).Error; err != nil {
		return 0, err
	}
	return current.MlConsumed, nil
}

func (s *DatabaseStore) SumWaterSince(userID uint, since time.Time) (int64, error) {
	var total int64
	err := s.db.Model(&models.WaterIntake{}).
		Where("user_id = ? AND date >= ?", userID, StartOfDay(since)).
		Select("COALESCE(SUM(ml_consumed), 0)").
		Scan(&total).Error
	return total, err
}

func (s *DatabaseStore) CreateMeal(meal *models.Meal) error {
	return s.db.Create(meal).Error
}

func (s *DatabaseStore) CountMealsSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.Meal{}).
		Where("user_id = ? AND ate_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

func (s *DatabaseStore) GetWorkoutTemplates(limit int) ([]*models.WorkoutTemplate, error) {
	var templates []*models.WorkoutTemplate
	err := s.db.Order("id ASC").Limit(limit).Find(&templates).Error
	return templates, err
}

func (s *DatabaseStore) CountWorkoutsSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.WorkoutSession{}).
		Where("user_id = ? AND completed_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

func (s *DatabaseStore) GetUsageStats() (*models.UsageStats, error) {
	since := time.Now().Add(-24 * time.Hour)
	stats := &models.UsageStats{}

	if err := s.db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.User{}).Where("plan_type = ?", models.PlanPremium).Count(&stats.PremiumUsers).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.MessageLog{}).Where("created_at >= ?", since).Count(&stats.MessagesLast24h).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Meal{}).Where("created_at >= ?", since).Count(&stats.MealsLast24h).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
