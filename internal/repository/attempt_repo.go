package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/model"
	"gorm.io/gorm"
)

// AttemptRepository handles database operations for NotificationAttempt.
// The dispatch engine is the sole writer; reporting paths only read.
type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Create inserts a new pending attempt
func (r *AttemptRepository) Create(attempt *model.NotificationAttempt) error {
	return r.db.Create(attempt).Error
}

// MarkSent finalizes an attempt as sent, stamping sent_at and appending the
// collected delivery receipt ids. partialErr records per-message failures
// that did not prevent the attempt from succeeding overall.
// The update goes through a struct so the receipt ids pass the field's JSON
// serializer; a map value would bind the raw slice.
func (r *AttemptRepository) MarkSent(id uuid.UUID, at time.Time, receiptIDs []string, partialErr *string) error {
	update := model.NotificationAttempt{
		Status:     model.AttemptSent,
		SentAt:     &at,
		ReceiptIDs: receiptIDs,
		Error:      partialErr,
	}
	return r.db.Model(&model.NotificationAttempt{}).
		Where("id = ? AND status = ?", id, model.AttemptPending).
		Select("status", "sent_at", "receipt_ids", "error").
		Updates(update).Error
}

// MarkFailed finalizes an attempt as failed with the error text
func (r *AttemptRepository) MarkFailed(id uuid.UUID, reason string) error {
	return r.db.Model(&model.NotificationAttempt{}).
		Where("id = ? AND status = ?", id, model.AttemptPending).
		Updates(map[string]interface{}{
			"status": model.AttemptFailed,
			"error":  reason,
		}).Error
}

// CountSentBetween counts sent attempts for the user inside [from, to)
func (r *AttemptRepository) CountSentBetween(userID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.NotificationAttempt{}).
		Where("user_id = ? AND status = ? AND sent_at >= ? AND sent_at < ?",
			userID, model.AttemptSent, from, to).
		Count(&count).Error
	return count, err
}

// SentExistsBetween reports whether a sent attempt of the type exists for the
// user inside [from, to)
func (r *AttemptRepository) SentExistsBetween(userID uuid.UUID, typ string, from, to time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&model.NotificationAttempt{}).
		Where("user_id = ? AND type = ? AND status = ? AND sent_at >= ? AND sent_at < ?",
			userID, typ, model.AttemptSent, from, to).
		Count(&count).Error
	return count > 0, err
}

// SentExistsSince reports whether a sent attempt of the type exists for the
// user at or after since
func (r *AttemptRepository) SentExistsSince(userID uuid.UUID, typ string, since time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&model.NotificationAttempt{}).
		Where("user_id = ? AND type = ? AND status = ? AND sent_at >= ?",
			userID, typ, model.AttemptSent, since).
		Count(&count).Error
	return count > 0, err
}

// SentExistsEver reports whether a sent attempt of the type was ever recorded
// for the user
func (r *AttemptRepository) SentExistsEver(userID uuid.UUID, typ string) (bool, error) {
	var count int64
	err := r.db.Model(&model.NotificationAttempt{}).
		Where("user_id = ? AND type = ? AND status = ?", userID, typ, model.AttemptSent).
		Count(&count).Error
	return count > 0, err
}

// ListByUser returns a user's attempts, newest first, for the audit endpoint
func (r *AttemptRepository) ListByUser(userID uuid.UUID, limit int) ([]model.NotificationAttempt, error) {
	var attempts []model.NotificationAttempt
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}
