package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/model"
	"gorm.io/gorm"
)

// UserRepository handles database operations for User
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by UUID
func (r *UserRepository) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyEmail marks user's email as verified
func (r *UserRepository) VerifyEmail(userID uuid.UUID) error {
	now := time.Now()
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("email_verified_at", now).Error
}

// UpdatePassword updates a user's password
func (r *UserRepository) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", hashedPassword).Error
}

// UpdateStreak stores the precomputed streak counter and last activity time
func (r *UserRepository) UpdateStreak(userID uuid.UUID, streak int, lastLogAt time.Time) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"current_streak": streak,
			"last_log_at":    lastLogAt,
		}).Error
}

// CurrentStreak reads the precomputed streak counter for the dispatch engine
func (r *UserRepository) CurrentStreak(userID uuid.UUID) (int, *time.Time, error) {
	var user model.User
	if err := r.db.Select("current_streak", "last_log_at").Where("id = ?", userID).First(&user).Error; err != nil {
		return 0, nil, err
	}
	return user.CurrentStreak, user.LastLogAt, nil
}

// ListNotifiable returns users with at least one enabled notification toggle
// and at least one active supported-platform device. Users without a settings
// row have every toggle on by default, so only an explicit all-off row
// excludes them.
func (r *UserRepository) ListNotifiable(limit int) ([]model.User, error) {
	var users []model.User
	err := r.db.
		Joins("LEFT JOIN notification_settings ns ON ns.user_id = users.id").
		Where("ns.id IS NULL OR ns.reminder_enabled OR ns.important_enabled").
		Where("EXISTS (SELECT 1 FROM user_devices d WHERE d.user_id = users.id AND d.disabled_at IS NULL AND d.platform IN ?)",
			[]model.DevicePlatform{model.PlatformAndroid, model.PlatformIOS}).
		Limit(limit).
		Find(&users).Error
	return users, err
}
