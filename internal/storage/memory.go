package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zapfit/zapfit-backend/internal/models"
)

// MemoryStore holds all data in memory. Used by tests and when
// USE_MEMORY_STORE=true (not for production!).
type MemoryStore struct {
	users     map[uint]*models.User
	logs      []*models.MessageLog
	weights   []*models.WeightLog
	water     map[string]*models.WaterIntake // "userID:YYYY-MM-DD"
	meals     []*models.Meal
	templates []*models.WorkoutTemplate
	sessions  []*models.WorkoutSession

	userMu    sync.RWMutex
	logMu     sync.RWMutex
	healthMu  sync.RWMutex
	mealMu    sync.RWMutex
	workoutMu sync.RWMutex

	userCounter uint
	logCounter  uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[uint]*models.User),
		water: make(map[string]*models.WaterIntake),
	}
}

// SeedUser registers a user directly, bypassing the app signup flow. Test and
// development helper; not part of the Store interface.
func (m *MemoryStore) SeedUser(user *models.User) *models.User {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	m.userCounter++
	user.ID = m.userCounter
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return user
}

// SeedWorkoutTemplate registers a workout template. Test helper.
func (m *MemoryStore) SeedWorkoutTemplate(t *models.WorkoutTemplate) *models.WorkoutTemplate {
	m.workoutMu.Lock()
	defer m.workoutMu.Unlock()

	t.ID = uint(len(m.templates) + 1)
	m.templates = append(m.templates, t)
	return t
}

// SeedWorkoutSession registers a completed workout. Test helper.
func (m *MemoryStore) SeedWorkoutSession(s *models.WorkoutSession) *models.WorkoutSession {
	m.workoutMu.Lock()
	defer m.workoutMu.Unlock()

	s.ID = uint(len(m.sessions) + 1)
	m.sessions = append(m.sessions, s)
	return s
}

// WeightLogs returns all weight rows for a user. Test helper.
func (m *MemoryStore) WeightLogs(userID uint) []*models.WeightLog {
	m.healthMu.RLock()
	defer m.healthMu.RUnlock()

	var out []*models.WeightLog
	for _, entry := range m.weights {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out
}

// WaterIntakeRows returns the number of water rows for a user. Test helper.
func (m *MemoryStore) WaterIntakeRows(userID uint) int {
	m.healthMu.RLock()
	defer m.healthMu.RUnlock()

	count := 0
	for _, row := range m.water {
		if row.UserID == userID {
			count++
		}
	}
	return count
}

func (m *MemoryStore) GetUserByPhone(phone string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	for _, user := range m.users {
		if user.WhatsAppPhone == phone {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (m *MemoryStore) UpdateUserActivity(userID uint, at time.Time) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user, exists := m.users[userID]
	if !exists {
		return fmt.Errorf("user not found")
	}
	user.LastMessageAt = &at
	user.WhatsAppActive = true
	user.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) GetQuietPremiumUsers(inactiveDays int) ([]*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	cutoff := time.Now().AddDate(0, 0, -inactiveDays)

	var users []*models.User
	for _, user := range m.users {
		if !user.IsPremium() || !user.WhatsAppActive {
			continue
		}
		if user.LastMessageAt == nil || !user.LastMessageAt.Before(cutoff) {
			continue
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *MemoryStore) CreateMessageLog(entry *models.MessageLog) error {
	m.logMu.Lock()
	defer m.logMu.Unlock()

	m.logCounter++
	entry.ID = m.logCounter
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.logs = append(m.logs, entry)
	return nil
}

func (m *MemoryStore) CountInboundSince(userID uint, since time.Time) (int64, error) {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	var count int64
	for _, entry := range m.logs {
		if entry.UserID == userID && entry.Direction == models.DirectionInbound && !entry.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) GetRecentMessages(userID uint, limit int, beforeID uint) ([]*models.MessageLog, error) {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	var entries []*models.MessageLog
	for i := len(m.logs) - 1; i >= 0 && len(entries) < limit; i-- {
		entry := m.logs[i]
		if entry.UserID == userID && entry.ID < beforeID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (m *MemoryStore) CreateWeightLog(entry *models.WeightLog) error {
	m.healthMu.Lock()
	defer m.healthMu.Unlock()

	entry.ID = uint(len(m.weights) + 1)
	entry.CreatedAt = time.Now()
	m.weights = append(m.weights, entry)
	return nil
}

func (m *MemoryStore) AddWaterIntake(userID uint, day time.Time, ml int) (int, error) {
	m.healthMu.Lock()
	defer m.healthMu.Unlock()

	day = StartOfDay(day)
	key := fmt.Sprintf("%d:%s", userID, day.Format("2006-01-02"))

	if row, exists := m.water[key]; exists {
		row.MlConsumed += ml
		row.UpdatedAt = time.Now()
		return row.MlConsumed, nil
	}

	row := &models.WaterIntake{UserID: userID, Date: day, MlConsumed: ml}
	row.ID = uint(len(m.water) + 1)
	row.CreatedAt = time.Now()
	m.water[key] = row
	return row.MlConsumed, nil
}

func (m *MemoryStore) SumWaterSince(userID uint, since time.Time) (int64, error) {
	m.healthMu.RLock()
	defer m.healthMu.RUnlock()

	since = StartOfDay(since)

	var total int64
	for _, row := range m.water {
		if row.UserID == userID && !row.Date.Before(since) {
			total += int64(row.MlConsumed)
		}
	}
	return total, nil
}

func (m *MemoryStore) CreateMeal(meal *models.Meal) error {
	m.mealMu.Lock()
	defer m.mealMu.Unlock()

	meal.ID = uint(len(m.meals) + 1)
	meal.CreatedAt = time.Now()
	m.meals = append(m.meals, meal)
	return nil
}

func (m *MemoryStore) CountMealsSince(userID uint, since time.Time) (int64, error) {
	m.mealMu.RLock()
	defer m.mealMu.RUnlock()

	var count int64
	for _, meal := range m.meals {
		if meal.UserID == userID && !meal.AteAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) GetWorkoutTemplates(limit int) ([]*models.WorkoutTemplate, error) {
	m.workoutMu.RLock()
	defer m.workoutMu.RUnlock()

	var templates []*models.WorkoutTemplate
	for _, t := range m.templates {
		if len(templates) >= limit {
			break
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func (m *MemoryStore) CountWorkoutsSince(userID uint, since time.Time) (int64, error) {
	m.workoutMu.RLock()
	defer m.workoutMu.RUnlock()

	var count int64
	for _, s := range m.sessions {
		if s.UserID == userID && !s.CompletedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) GetUsageStats() (*models.UsageStats, error) {
	since := time.Now().Add(-24 * time.Hour)
	stats := &models.UsageStats{}

	m.userMu.RLock()
	for _, user := range m.users {
		stats.TotalUsers++
		if user.IsPremium() {
			stats.PremiumUsers++
		}
	}
	m.userMu.RUnlock()

	m.logMu.RLock()
	for _, entry := range m.logs {
		if !entry.CreatedAt.Before(since) {
			stats.MessagesLast24h++
		}
	}
	m.logMu.RUnlock()

	m.mealMu.RLock()
	for _, meal := range m.meals {
		if !meal.CreatedAt.Before(since) {
			stats.MealsLast24h++
		}
	}
	m.mealMu.RUnlock()

	return stats, nil
}
