package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered Mealio account
type User struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name            string     `json:"name" gorm:"size:100;not null"`
	Email           string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password        string     `json:"-" gorm:"size:255"`
	Avatar          string     `json:"avatar" gorm:"size:500;default:''"`
	EmailVerifiedAt *time.Time `json:"email_verified_at" gorm:"type:timestamptz"` // NULL = not verified
	Language        string     `json:"language" gorm:"size:10;default:'en'"`

	// Streak counters, maintained by the meal service on every log write so
	// readers never recompute them from history.
	CurrentStreak int        `json:"current_streak" gorm:"default:0"`
	LastLogAt     *time.Time `json:"last_log_at" gorm:"type:timestamptz"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsEmailVerified checks if the user's email has been verified
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// UserResponse is the safe version of User for API responses
type UserResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Avatar        string     `json:"avatar"`
	EmailVerified bool       `json:"email_verified"`
	Language      string     `json:"language"`
	CurrentStreak int        `json:"current_streak"`
	LastLogAt     *time.Time `json:"last_log_at"`
}

// ToResponse converts User to safe UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Avatar:        u.Avatar,
		EmailVerified: u.IsEmailVerified(),
		Language:      u.Language,
		CurrentStreak: u.CurrentStreak,
		LastLogAt:     u.LastLogAt,
	}
}
