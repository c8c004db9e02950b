package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/model"
)

// The engine only reads external signals through these ports. Repositories
// and services satisfy them in production; tests use in-memory fakes.

// UserSource lists users eligible for notification evaluation
type UserSource interface {
	// ListNotifiable returns up to limit users with at least one enabled
	// notification toggle and at least one active supported-platform device.
	ListNotifiable(limit int) ([]model.User, error)
}

// SettingsSource resolves a user's notification preferences
type SettingsSource interface {
	GetOrCreate(userID uuid.UUID) (*model.NotificationSettings, error)
}

// DeviceStore reads active device registrations and disables dead ones
type DeviceStore interface {
	ActiveByUser(userID uuid.UUID) ([]model.UserDevice, error)
	Disable(deviceID uuid.UUID, at time.Time) error
}

// AttemptStore persists dispatch decisions and answers dedup queries
type AttemptStore interface {
	Create(attempt *model.NotificationAttempt) error
	// MarkSent finalizes the attempt. partialErr carries per-message failure
	// text when some devices in the batch did not accept the push.
	MarkSent(id uuid.UUID, at time.Time, receiptIDs []string, partialErr *string) error
	MarkFailed(id uuid.UUID, reason string) error

	CountSentBetween(userID uuid.UUID, from, to time.Time) (int64, error)
	SentExistsBetween(userID uuid.UUID, typ string, from, to time.Time) (bool, error)
	SentExistsSince(userID uuid.UUID, typ string, since time.Time) (bool, error)
	SentExistsEver(userID uuid.UUID, typ string) (bool, error)
}

// LogSource reads meal-log history
type LogSource interface {
	RecentLogs(userID uuid.UUID, since time.Time) ([]model.MealLog, error)
	OldestLogAt(userID uuid.UUID) (*time.Time, error)
}

// StreakSource reads the precomputed streak counter
type StreakSource interface {
	CurrentStreak(userID uuid.UUID) (length int, lastActivityAt *time.Time, err error)
}

// EntitlementSource reads the premium entitlement window. The returned end is
// nil when no entitlement is active at now.
type EntitlementSource interface {
	ActiveWindowEnd(userID uuid.UUID, now time.Time) (*time.Time, error)
}

// UsageSource reads the remaining free-tier AI analysis allowance
type UsageSource interface {
	RemainingFreeUses(ctx context.Context, userID uuid.UUID) (int, error)
}

// Message is one push addressed to a single device token
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// SendResult is the per-message outcome of a batch send, in input order
type SendResult struct {
	OK        bool
	ReceiptID string
	// Unregistered marks a permanent failure: the token is no longer valid
	// and its registration should be disabled.
	Unregistered bool
	Err          error
}

// Transport delivers a batch of push messages. Implementations enforce their
// own request timeout; the engine treats the returned outcomes as terminal.
type Transport interface {
	SendBatch(ctx context.Context, msgs []Message) ([]SendResult, error)
}
