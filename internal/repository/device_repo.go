package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceRepository handles database operations for UserDevice
type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Register adds or refreshes a device registration. Re-registering a token
// clears a previous disable, which is the only way a dead registration comes
// back to life.
func (r *DeviceRepository) Register(userID uuid.UUID, token string, platform model.DevicePlatform, locale string) error {
	if locale == "" {
		locale = "en"
	}
	device := model.UserDevice{
		UserID:       userID,
		PushToken:    token,
		Platform:     platform,
		Locale:       locale,
		LastActiveAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "push_token"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_active_at": time.Now(),
			"platform":       platform,
			"locale":         locale,
			"disabled_at":    nil,
		}),
	}).Create(&device).Error
}

// Unregister removes a device registration owned by the user
func (r *DeviceRepository) Unregister(userID uuid.UUID, token string) error {
	return r.db.
		Where("user_id = ? AND push_token = ?", userID, token).
		Delete(&model.UserDevice{}).Error
}

// ActiveByUser returns the user's active supported-platform registrations
func (r *DeviceRepository) ActiveByUser(userID uuid.UUID) ([]model.UserDevice, error) {
	var devices []model.UserDevice
	err := r.db.
		Where("user_id = ? AND disabled_at IS NULL AND platform IN ?",
			userID, []model.DevicePlatform{model.PlatformAndroid, model.PlatformIOS}).
		Find(&devices).Error
	return devices, err
}

// Disable marks a registration dead after a permanent delivery failure
func (r *DeviceRepository) Disable(deviceID uuid.UUID, at time.Time) error {
	return r.db.Model(&model.UserDevice{}).
		Where("id = ?", deviceID).
		Update("disabled_at", at).Error
}
