package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/model"
	"gorm.io/gorm"
)

// SettingsRepository handles database operations for NotificationSettings
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetOrCreate returns the user's settings, creating a default row on first
// read
func (r *SettingsRepository) GetOrCreate(userID uuid.UUID) (*model.NotificationSettings, error) {
	var settings model.NotificationSettings
	err := r.db.Where("user_id = ?", userID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings = model.NotificationSettings{
		UserID:           userID,
		ReminderEnabled:  true,
		ImportantEnabled: true,
		QuietHoursStart:  0,
		QuietHoursEnd:    0,
		DailyCap:         3,
		Timezone:         "UTC",
	}
	if err := r.db.Create(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update applies partial changes to the user's settings
func (r *SettingsRepository) Update(userID uuid.UUID, updates map[string]interface{}) (*model.NotificationSettings, error) {
	// Ensure the row exists before updating it.
	if _, err := r.GetOrCreate(userID); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := r.db.Model(&model.NotificationSettings{}).
			Where("user_id = ?", userID).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	var settings model.NotificationSettings
	if err := r.db.Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}
