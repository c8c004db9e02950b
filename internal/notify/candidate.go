package notify

import "strconv"

// Notification type tags. The tag is persisted on the attempt row and is the
// key the dedup checks run against. Streak types carry the milestone value so
// each milestone deduplicates independently.
const (
	TypeMealReminder     = "meal.reminder"
	TypePremiumExpiring  = "premium.expiring"
	TypeUsageLow         = "ai.usage.low"
	TypeRetentionWarning = "retention.warning"

	streakTypePrefix = "streak.congrats."
)

// StreakType returns the attempt type tag for a streak milestone
func StreakType(milestone int) string {
	return streakTypePrefix + strconv.Itoa(milestone)
}

// DedupPolicy controls how far back the already-sent check for a candidate
// type reaches.
type DedupPolicy int

const (
	// DedupDaily suppresses a candidate when an attempt of its type was
	// already sent during the user's current local calendar day.
	DedupDaily DedupPolicy = iota
	// DedupPermanent suppresses a candidate when an attempt of its type was
	// ever sent. Used for one-time milestone congratulations.
	DedupPermanent
)

// Candidate is an in-memory notification proposal produced by one builder.
// It lives only for the duration of a single evaluation pass.
type Candidate struct {
	Type                  string
	Title                 string
	Body                  string
	Data                  map[string]string
	Priority              int
	AllowDuringQuietHours bool
	Dedup                 DedupPolicy
}
