package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus is the delivery state of a notification attempt
type AttemptStatus string

const (
	AttemptPending AttemptStatus = "pending"
	AttemptSent    AttemptStatus = "sent"
	AttemptFailed  AttemptStatus = "failed"
)

// NotificationAttempt records a single dispatch decision and its outcome.
// Rows are created pending and transition exactly once to sent or failed;
// the table doubles as the deduplication index for the dispatch engine.
type NotificationAttempt struct {
	ID           uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index:idx_attempt_user_type"`
	Type         string            `json:"type" gorm:"size:100;not null;index:idx_attempt_user_type"`
	Status       AttemptStatus     `json:"status" gorm:"size:20;default:'pending';index"`
	ScheduledFor time.Time         `json:"scheduled_for" gorm:"type:timestamptz;not null"`
	SentAt       *time.Time        `json:"sent_at" gorm:"type:timestamptz"`
	Error        *string           `json:"error" gorm:"type:text"`
	Title        string            `json:"title" gorm:"size:200"`
	Body         string            `json:"body" gorm:"type:text"`
	Payload      map[string]string `json:"payload" gorm:"serializer:json;type:jsonb"`
	ReceiptIDs   []string          `json:"receipt_ids" gorm:"serializer:json;type:jsonb"`
	CreatedAt    time.Time         `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
