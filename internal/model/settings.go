package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationSettings holds a user's notification preferences.
// Quiet hours are minutes of local day [0,1439]; equal start and end means
// quiet hours are disabled.
type NotificationSettings struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID           uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	ReminderEnabled  bool      `json:"reminder_enabled" gorm:"default:true"`
	ImportantEnabled bool      `json:"important_enabled" gorm:"default:true"`
	QuietHoursStart  int       `json:"quiet_hours_start" gorm:"default:0"`
	QuietHoursEnd    int       `json:"quiet_hours_end" gorm:"default:0"`
	DailyCap         int       `json:"daily_cap" gorm:"default:3"`
	Timezone         string    `json:"timezone" gorm:"size:64;default:'UTC'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
