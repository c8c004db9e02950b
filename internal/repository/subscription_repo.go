package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/model"
	"gorm.io/gorm"
)

// SubscriptionRepository handles database operations for Subscription
type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create inserts a new subscription
func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

// ActiveForUser returns the user's subscription covering now, or nil
func (r *SubscriptionRepository) ActiveForUser(userID uuid.UUID, now time.Time) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.
		Where("user_id = ? AND status <> ? AND current_period_end > ?",
			userID, model.SubscriptionExpired, now).
		Order("current_period_end DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ActiveWindowEnd returns the end of the active entitlement window, or nil
// when the user has no active entitlement. This is the dispatch engine's
// premium read.
func (r *SubscriptionRepository) ActiveWindowEnd(userID uuid.UUID, now time.Time) (*time.Time, error) {
	sub, err := r.ActiveForUser(userID, now)
	if err != nil || sub == nil {
		return nil, err
	}
	return &sub.CurrentPeriodEnd, nil
}
