package notify

import (
	"testing"
	"time"

	"github.com/phamquangminh/mealio/internal/model"
)

func mklog(period model.MealPeriod, at time.Time) model.MealLog {
	return model.MealLog{Period: period, LoggedAt: at}
}

// atMinute returns the given day shifted to an exact minute of day in UTC
func atMinute(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, time.UTC)
}

func TestBuildMealReminderFallbackWindow(t *testing.T) {
	// No history at all: breakfast falls back to 07:30, nudge at 08:30+30m
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		nowMin     int
		wantPeriod string
	}{
		{"just inside window", 8*60 + 45, "breakfast"},
		{"at window open", 8*60 + 30, "breakfast"},
		{"window closed", 9*60 + 5, ""},
		{"before window", 8 * 60, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := buildMealReminder(atMinute(day, tt.nowMin), time.UTC, nil)
			if tt.wantPeriod == "" {
				if c != nil {
					t.Fatalf("expected no candidate, got %v", c)
				}
				return
			}
			if c == nil {
				t.Fatal("expected a candidate, got nil")
			}
			if c.Type != TypeMealReminder {
				t.Errorf("type = %q, want %q", c.Type, TypeMealReminder)
			}
			if c.Data["period"] != tt.wantPeriod {
				t.Errorf("period = %q, want %q", c.Data["period"], tt.wantPeriod)
			}
			if c.AllowDuringQuietHours {
				t.Error("meal reminder must not be quiet-hour exempt")
			}
		})
	}
}

func TestBuildMealReminderLoggedTodaySkips(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	now := atMinute(day, 8*60+45)
	logs := []model.MealLog{mklog(model.PeriodBreakfast, atMinute(day, 8*60))}

	if c := buildMealReminder(now, time.UTC, logs); c != nil {
		t.Fatalf("breakfast already logged today, expected nil, got %v", c)
	}
}

func TestBuildMealReminderLearnedBaseline(t *testing.T) {
	// Three breakfasts at 06:00 override the 07:30 fallback
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	var logs []model.MealLog
	for d := 1; d <= 3; d++ {
		logs = append(logs, mklog(model.PeriodBreakfast, atMinute(day.AddDate(0, 0, -d), 6*60)))
	}

	c := buildMealReminder(atMinute(day, 7*60+10), time.UTC, logs)
	if c == nil {
		t.Fatal("expected a candidate at 07:10 with a 06:00 baseline")
	}
	if c.Data["period"] != "breakfast" {
		t.Errorf("period = %q, want breakfast", c.Data["period"])
	}

	// The fallback window would have fired at 08:45; the learned one must not
	if c := buildMealReminder(atMinute(day, 8*60+45), time.UTC, logs); c != nil {
		t.Fatalf("expected nil at 08:45 with a learned 06:00 baseline, got %v", c)
	}
}

func TestBuildMealReminderUnderSampledUsesFallback(t *testing.T) {
	// Two samples are below the minimum, so the fallback still applies
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	var logs []model.MealLog
	for d := 1; d <= 2; d++ {
		logs = append(logs, mklog(model.PeriodBreakfast, atMinute(day.AddDate(0, 0, -d), 6*60)))
	}

	if c := buildMealReminder(atMinute(day, 7*60+10), time.UTC, logs); c != nil {
		t.Fatalf("two samples must not override the fallback, got %v", c)
	}
	if c := buildMealReminder(atMinute(day, 8*60+45), time.UTC, logs); c == nil {
		t.Fatal("expected the fallback window to fire at 08:45")
	}
}

func TestBuildMealReminderPeriodPrecedence(t *testing.T) {
	// Breakfast and lunch windows overlap; breakfast wins even though lunch
	// is closer to its target.
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	var logs []model.MealLog
	for d := 1; d <= 3; d++ {
		logs = append(logs, mklog(model.PeriodBreakfast, atMinute(day.AddDate(0, 0, -d), 11*60+40)))
		logs = append(logs, mklog(model.PeriodLunch, atMinute(day.AddDate(0, 0, -d), 11*60+45)))
	}

	c := buildMealReminder(atMinute(day, 12*60+45), time.UTC, logs)
	if c == nil {
		t.Fatal("expected a candidate")
	}
	if c.Data["period"] != "breakfast" {
		t.Errorf("period = %q, want breakfast (fixed precedence)", c.Data["period"])
	}
}

func TestBuildMealReminderWindowWrapsMidnight(t *testing.T) {
	// Late dinners at 23:30 push the nudge window past midnight
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	var logs []model.MealLog
	for d := 1; d <= 3; d++ {
		logs = append(logs, mklog(model.PeriodDinner, atMinute(day.AddDate(0, 0, -d), 23*60+30)))
	}

	c := buildMealReminder(atMinute(day, 40), time.UTC, logs)
	if c == nil {
		t.Fatal("expected the dinner window to spill into the next morning")
	}
	if c.Data["period"] != "dinner" {
		t.Errorf("period = %q, want dinner", c.Data["period"])
	}
}

func TestBuildMealReminderSnack(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	// Snack has no fallback: under-sampled means skipped entirely
	var thin []model.MealLog
	for d := 1; d <= 2; d++ {
		thin = append(thin, mklog(model.PeriodSnack, atMinute(day.AddDate(0, 0, -d), 15*60)))
	}
	if c := buildMealReminder(atMinute(day, 16*60+10), time.UTC, thin); c != nil {
		t.Fatalf("under-sampled snack must be skipped, got %v", c)
	}

	var full []model.MealLog
	for d := 1; d <= 3; d++ {
		full = append(full, mklog(model.PeriodSnack, atMinute(day.AddDate(0, 0, -d), 15*60)))
	}
	c := buildMealReminder(atMinute(day, 16*60+10), time.UTC, full)
	if c == nil {
		t.Fatal("expected a snack candidate with enough history")
	}
	if c.Data["period"] != "snack" {
		t.Errorf("period = %q, want snack", c.Data["period"])
	}
}

func TestBuildPremiumExpiring(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	end := func(d time.Duration) *time.Time {
		e := now.Add(d)
		return &e
	}

	tests := []struct {
		name     string
		end      *time.Time
		wantDays string // "" means no candidate
	}{
		{"no entitlement", nil, ""},
		{"far from expiry", end(5 * 24 * time.Hour), ""},
		{"just over the threshold", end(73 * time.Hour), ""},
		{"three days left", end(60 * time.Hour), "3"},
		{"one day left", end(20 * time.Hour), "1"},
		{"hours left rounds up to a day", end(2 * time.Hour), "1"},
		{"expires today", end(0), "0"},
		{"already past the end", end(-2 * time.Hour), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := buildPremiumExpiring(now, tt.end)
			if tt.wantDays == "" {
				if c != nil {
					t.Fatalf("expected nil, got %v", c)
				}
				return
			}
			if c == nil {
				t.Fatal("expected a candidate, got nil")
			}
			if c.Type != TypePremiumExpiring {
				t.Errorf("type = %q, want %q", c.Type, TypePremiumExpiring)
			}
			if c.Data["days_left"] != tt.wantDays {
				t.Errorf("days_left = %q, want %q", c.Data["days_left"], tt.wantDays)
			}
			if !c.AllowDuringQuietHours {
				t.Error("premium expiry must be quiet-hour exempt")
			}
		})
	}
}

func TestBuildUsageLow(t *testing.T) {
	if c := buildUsageLow(5); c != nil {
		t.Fatalf("plenty of uses left, expected nil, got %v", c)
	}

	c := buildUsageLow(1)
	if c == nil {
		t.Fatal("expected a candidate at 1 remaining")
	}
	if c.Title != "1 free analysis left" {
		t.Errorf("title = %q", c.Title)
	}
	if c.Data["remaining"] != "1" {
		t.Errorf("remaining = %q, want 1", c.Data["remaining"])
	}

	c = buildUsageLow(0)
	if c == nil {
		t.Fatal("expected a candidate at 0 remaining")
	}
	if c.Title != "Free analyses used up" {
		t.Errorf("title = %q", c.Title)
	}
	if !c.AllowDuringQuietHours {
		t.Error("usage warning must be quiet-hour exempt")
	}
}

func TestBuildRetentionWarning(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	oldest := func(days int) *time.Time {
		o := now.AddDate(0, 0, -days)
		return &o
	}

	tests := []struct {
		name           string
		oldest         *time.Time
		premium        bool
		warnedRecently bool
		wantDays       string
	}{
		{"no logs", nil, false, false, ""},
		{"premium user never warned", oldest(29), true, false, ""},
		{"recently warned", oldest(25), false, true, ""},
		{"too early", oldest(20), false, false, ""},
		{"inside warn window", oldest(25), false, false, "5"},
		{"last day", oldest(30), false, false, "0"},
		{"already past cutoff", oldest(31), false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := buildRetentionWarning(now, tt.oldest, tt.premium, tt.warnedRecently)
			if tt.wantDays == "" {
				if c != nil {
					t.Fatalf("expected nil, got %v", c)
				}
				return
			}
			if c == nil {
				t.Fatal("expected a candidate, got nil")
			}
			if c.Type != TypeRetentionWarning {
				t.Errorf("type = %q, want %q", c.Type, TypeRetentionWarning)
			}
			if c.Data["days_left"] != tt.wantDays {
				t.Errorf("days_left = %q, want %q", c.Data["days_left"], tt.wantDays)
			}
		})
	}
}

func TestBuildStreakCongrats(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	neverSent := func(string) (bool, error) { return false, nil }
	last := func(d time.Duration) *time.Time {
		l := now.Add(-d)
		return &l
	}

	t.Run("no activity", func(t *testing.T) {
		c, err := buildStreakCongrats(now, 0, nil, neverSent)
		if err != nil || c != nil {
			t.Fatalf("got %v, %v", c, err)
		}
	})

	t.Run("milestone just reached", func(t *testing.T) {
		c, err := buildStreakCongrats(now, 7, last(12*time.Hour), neverSent)
		if err != nil {
			t.Fatal(err)
		}
		if c == nil {
			t.Fatal("expected a candidate")
		}
		if c.Type != "streak.congrats.7" {
			t.Errorf("type = %q, want streak.congrats.7", c.Type)
		}
		if c.Dedup != DedupPermanent {
			t.Error("streak congrats must deduplicate permanently")
		}
		if c.Data["milestone"] != "7" || c.Data["streak"] != "7" {
			t.Errorf("data = %v", c.Data)
		}
	})

	t.Run("milestone one day back still inside the window", func(t *testing.T) {
		c, err := buildStreakCongrats(now, 8, last(6*time.Hour), neverSent)
		if err != nil {
			t.Fatal(err)
		}
		if c == nil || c.Type != "streak.congrats.7" {
			t.Fatalf("expected streak.congrats.7, got %v", c)
		}
	})

	t.Run("window expired", func(t *testing.T) {
		// Milestone 7 was reached 60h ago; nothing smaller is recent either
		c, err := buildStreakCongrats(now, 9, last(12*time.Hour), neverSent)
		if err != nil {
			t.Fatal(err)
		}
		if c != nil {
			t.Fatalf("expected nil for a stale milestone, got %v", c)
		}
	})

	t.Run("largest eligible milestone wins", func(t *testing.T) {
		// A 30-day streak reached now qualifies for 30, not 14 or 7
		c, err := buildStreakCongrats(now, 30, last(1*time.Hour), neverSent)
		if err != nil {
			t.Fatal(err)
		}
		if c == nil || c.Type != "streak.congrats.30" {
			t.Fatalf("expected streak.congrats.30, got %v", c)
		}
	})

	t.Run("already congratulated", func(t *testing.T) {
		sent := func(typ string) (bool, error) { return typ == "streak.congrats.7", nil }
		c, err := buildStreakCongrats(now, 7, last(12*time.Hour), sent)
		if err != nil {
			t.Fatal(err)
		}
		if c != nil {
			t.Fatalf("expected nil when already sent, got %v", c)
		}
	})
}
