package model

import (
	"time"

	"github.com/google/uuid"
)

// MealPeriod tags a log with the meal it belongs to
type MealPeriod string

const (
	PeriodBreakfast MealPeriod = "breakfast"
	PeriodLunch     MealPeriod = "lunch"
	PeriodDinner    MealPeriod = "dinner"
	PeriodSnack     MealPeriod = "snack"
)

// MealLog represents a single logged meal
type MealLog struct {
	ID       uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID   uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index:idx_meal_user_logged"`
	Name     string     `json:"name" gorm:"size:200;not null"`
	Period   MealPeriod `json:"period" gorm:"size:20;not null;index"`
	Calories int        `json:"calories" gorm:"default:0"`
	Protein  int        `json:"protein" gorm:"default:0"`
	Carbs    int        `json:"carbs" gorm:"default:0"`
	Fat      int        `json:"fat" gorm:"default:0"`
	PhotoURL string     `json:"photo_url" gorm:"size:500;default:''"`
	LoggedAt time.Time  `json:"logged_at" gorm:"type:timestamptz;not null;index:idx_meal_user_logged"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
