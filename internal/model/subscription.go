package model

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the lifecycle state of a premium subscription
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

// Subscription represents a user's premium entitlement window
type Subscription struct {
	ID               uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID           uuid.UUID          `json:"user_id" gorm:"type:uuid;not null;index"`
	Plan             string             `json:"plan" gorm:"size:50;not null"`
	Status           SubscriptionStatus `json:"status" gorm:"size:20;default:'active'"`
	CurrentPeriodEnd time.Time          `json:"current_period_end" gorm:"type:timestamptz;not null"`
	CanceledAt       *time.Time         `json:"canceled_at" gorm:"type:timestamptz"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// IsActiveAt reports whether the entitlement covers the given instant.
// A canceled subscription stays active until its paid period ends.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	if s.Status == SubscriptionExpired {
		return false
	}
	return s.CurrentPeriodEnd.After(t)
}
