package model

import (
	"time"

	"github.com/google/uuid"
)

// DevicePlatform identifies the push platform of a device registration
type DevicePlatform string

const (
	PlatformAndroid DevicePlatform = "android"
	PlatformIOS     DevicePlatform = "ios"
)

// UserDevice represents a user's device registration for push notifications.
// A registration disabled by the dispatch engine stays disabled until the
// client re-registers the token.
type UserDevice struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_token"`
	PushToken    string         `json:"push_token" gorm:"not null;uniqueIndex:idx_user_token"`
	Platform     DevicePlatform `json:"platform" gorm:"size:20;default:'android'"`
	Locale       string         `json:"locale" gorm:"size:10;default:'en'"`
	DisabledAt   *time.Time     `json:"disabled_at" gorm:"type:timestamptz"` // NULL = active
	LastActiveAt time.Time      `json:"last_active_at"`
	CreatedAt    time.Time      `json:"created_at"`
}

// IsActive reports whether the registration may still receive pushes
func (d *UserDevice) IsActive() bool {
	return d.DisabledAt == nil
}
