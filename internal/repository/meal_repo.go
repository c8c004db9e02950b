package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/model"
	"gorm.io/gorm"
)

// MealRepository handles database operations for MealLog
type MealRepository struct {
	db *gorm.DB
}

func NewMealRepository(db *gorm.DB) *MealRepository {
	return &MealRepository{db: db}
}

// Create inserts a new meal log
func (r *MealRepository) Create(log *model.MealLog) error {
	return r.db.Create(log).Error
}

// FindByID finds a meal log by UUID
func (r *MealRepository) FindByID(id uuid.UUID) (*model.MealLog, error) {
	var log model.MealLog
	if err := r.db.Where("id = ?", id).First(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// ListBetween returns a user's logs in [from, to), newest first
func (r *MealRepository) ListBetween(userID uuid.UUID, from, to time.Time) ([]model.MealLog, error) {
	var logs []model.MealLog
	err := r.db.
		Where("user_id = ? AND logged_at >= ? AND logged_at < ?", userID, from, to).
		Order("logged_at DESC").
		Find(&logs).Error
	return logs, err
}

// Delete removes a meal log owned by the user
func (r *MealRepository) Delete(userID, logID uuid.UUID) error {
	res := r.db.Where("id = ? AND user_id = ?", logID, userID).Delete(&model.MealLog{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RecentLogs returns a user's logs since the given time, for the dispatch
// engine's reminder history
func (r *MealRepository) RecentLogs(userID uuid.UUID, since time.Time) ([]model.MealLog, error) {
	var logs []model.MealLog
	err := r.db.
		Where("user_id = ? AND logged_at >= ?", userID, since).
		Order("logged_at ASC").
		Find(&logs).Error
	return logs, err
}

// OldestLogAt returns the timestamp of the user's oldest surviving log, or
// nil when the user has none
func (r *MealRepository) OldestLogAt(userID uuid.UUID) (*time.Time, error) {
	var log model.MealLog
	err := r.db.
		Where("user_id = ?", userID).
		Order("logged_at ASC").
		First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log.LoggedAt, nil
}

// CountLoggedDays counts distinct local-agnostic days with at least one log
// since the given time. Used by the seeder and reporting, not the engine.
func (r *MealRepository) CountLoggedDays(userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.MealLog{}).
		Where("user_id = ? AND logged_at >= ?", userID, since).
		Distinct("DATE(logged_at)").
		Count(&count).Error
	return count, err
}

// DeleteOlderThanForFreeUsers purges logs past the retention cutoff for users
// without an active subscription. Returns the number of rows removed.
func (r *MealRepository) DeleteOlderThanForFreeUsers(cutoff time.Time, now time.Time) (int64, error) {
	res := r.db.
		Where("logged_at < ?", cutoff).
		Where("user_id NOT IN (SELECT user_id FROM subscriptions WHERE status <> ? AND current_period_end > ?)",
			model.SubscriptionExpired, now).
		Delete(&model.MealLog{})
	return res.RowsAffected, res.Error
}
