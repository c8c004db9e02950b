package notify

import (
	"fmt"
	"math"
	"time"

	"github.com/phamquangminh/mealio/internal/model"
)

const (
	reminderHistoryDays = 30
	reminderMinSample   = 3
	reminderGraceMin    = 60 // minutes past the usual time before nudging
	reminderWindowMin   = 30 // minutes the nudge stays eligible

	premiumWarnDays    = 3
	usageWarnRemaining = 1

	// RetentionDays is the hard cutoff after which free-tier logs are purged.
	RetentionDays     = 30
	retentionWarnDays = 7
	// retentionResend suppresses repeat warnings within the trailing week.
	retentionResend = 7 * 24 * time.Hour

	streakWindow = 36 * time.Hour
)

// streakMilestones must stay ascending; the builder scans it back to front.
var streakMilestones = []int{1, 3, 7, 14, 30, 100, 365, 1000}

// mealPeriodOrder is the fixed precedence for reminder eligibility. The first
// eligible period wins even when a later one is closer to its target time.
var mealPeriodOrder = []model.MealPeriod{
	model.PeriodBreakfast,
	model.PeriodLunch,
	model.PeriodDinner,
	model.PeriodSnack,
}

// periodFallbackMinute is the baseline used when a period has too little
// history. Snack has no fallback and is skipped when under-sampled.
var periodFallbackMinute = map[model.MealPeriod]int{
	model.PeriodBreakfast: 7*60 + 30,
	model.PeriodLunch:     12*60 + 30,
	model.PeriodDinner:    19 * 60,
}

var periodLabel = map[model.MealPeriod]string{
	model.PeriodBreakfast: "breakfast",
	model.PeriodLunch:     "lunch",
	model.PeriodDinner:    "dinner",
	model.PeriodSnack:     "snack",
}

// buildMealReminder nudges the user about the first meal period, in fixed
// precedence order, whose usual logging time passed about an hour ago with no
// log recorded today. The usual time is the median minute of day over the
// trailing 30 days of logs for that period, or a fixed fallback when the
// sample is too small.
func buildMealReminder(now time.Time, loc *time.Location, logs []model.MealLog) *Candidate {
	dayStart, _ := LocalDayBounds(now, loc)
	nowMin := MinuteOfDay(now.In(loc))

	minutes := make(map[model.MealPeriod][]int)
	loggedToday := make(map[model.MealPeriod]bool)
	for _, l := range logs {
		local := l.LoggedAt.In(loc)
		minutes[l.Period] = append(minutes[l.Period], MinuteOfDay(local))
		if !local.Before(dayStart) {
			loggedToday[l.Period] = true
		}
	}

	for _, period := range mealPeriodOrder {
		if loggedToday[period] {
			continue
		}

		var baseline int
		if m := Median(minutes[period]); m != nil && len(minutes[period]) >= reminderMinSample {
			baseline = *m
		} else if fallback, ok := periodFallbackMinute[period]; ok {
			baseline = fallback
		} else {
			continue
		}

		target := (baseline + reminderGraceMin) % minutesPerDay
		if sinceTarget(nowMin, target) >= reminderWindowMin {
			continue
		}

		label := periodLabel[period]
		return &Candidate{
			Type:  TypeMealReminder,
			Title: "Don't forget to log your meal",
			Body:  fmt.Sprintf("Looks like you haven't logged %s yet. Add it now to keep your day complete!", label),
			Data: map[string]string{
				"period": string(period),
			},
			Priority:              10,
			AllowDuringQuietHours: false,
			Dedup:                 DedupDaily,
		}
	}
	return nil
}

const minutesPerDay = 24 * 60

// sinceTarget is the forward minute distance from target to now, wrapping
// across midnight so a late-evening target window spills into the next morning.
func sinceTarget(nowMin, target int) int {
	return ((nowMin - target) + minutesPerDay) % minutesPerDay
}

// buildPremiumExpiring warns about an active entitlement ending within the
// next few days. periodEnd is nil when the user has no active entitlement.
func buildPremiumExpiring(now time.Time, periodEnd *time.Time) *Candidate {
	if periodEnd == nil {
		return nil
	}
	until := periodEnd.Sub(now)
	if until > premiumWarnDays*24*time.Hour {
		return nil
	}

	daysLeft := int(math.Ceil(until.Hours() / 24))
	if daysLeft < 0 {
		daysLeft = 0
	}

	var body string
	switch daysLeft {
	case 0:
		body = "Your Premium subscription expires today. Renew now to keep unlimited AI analyses."
	case 1:
		body = "Your Premium subscription expires in 1 day. Renew now to keep unlimited AI analyses."
	default:
		body = fmt.Sprintf("Your Premium subscription expires in %d days. Renew now to keep unlimited AI analyses.", daysLeft)
	}

	return &Candidate{
		Type:  TypePremiumExpiring,
		Title: "Premium expiring soon",
		Body:  body,
		Data: map[string]string{
			"days_left": fmt.Sprintf("%d", daysLeft),
		},
		Priority:              100,
		AllowDuringQuietHours: true,
		Dedup:                 DedupDaily,
	}
}

// buildUsageLow warns when the free-tier AI analysis allowance is almost gone
func buildUsageLow(remaining int) *Candidate {
	if remaining > usageWarnRemaining {
		return nil
	}

	var title, body string
	if remaining <= 0 {
		title = "Free analyses used up"
		body = "You've used all your free AI analyses this month. Upgrade to Premium for unlimited analyses."
	} else {
		title = "1 free analysis left"
		body = "You have 1 free AI analysis left this month. Upgrade to Premium for unlimited analyses."
	}

	return &Candidate{
		Type:  TypeUsageLow,
		Title: title,
		Body:  body,
		Data: map[string]string{
			"remaining": fmt.Sprintf("%d", remaining),
		},
		Priority:              90,
		AllowDuringQuietHours: true,
		Dedup:                 DedupDaily,
	}
}

// buildRetentionWarning tells free-tier users their oldest logs are nearing
// the retention cutoff. warnedRecently suppresses repeats inside the trailing
// re-warn window; the caller derives it from the attempt log.
func buildRetentionWarning(now time.Time, oldestLog *time.Time, premium bool, warnedRecently bool) *Candidate {
	if premium || oldestLog == nil || warnedRecently {
		return nil
	}

	ageDays := int(now.Sub(*oldestLog).Hours() / 24)
	daysLeft := RetentionDays - ageDays
	if daysLeft > retentionWarnDays || daysLeft < 0 {
		return nil
	}

	return &Candidate{
		Type:  TypeRetentionWarning,
		Title: "Your meal history is about to expire",
		Body:  fmt.Sprintf("Free accounts keep %d days of history. Your oldest logs will be deleted in %d days. Upgrade to Premium to keep them forever.", RetentionDays, daysLeft),
		Data: map[string]string{
			"days_left": fmt.Sprintf("%d", daysLeft),
		},
		Priority:              80,
		AllowDuringQuietHours: true,
		Dedup:                 DedupDaily,
	}
}

// buildStreakCongrats congratulates the largest milestone at or below the
// current streak whose achievement instant falls inside the trailing window.
// sentEver consults the attempt log; a milestone congratulated once is never
// proposed again.
func buildStreakCongrats(now time.Time, length int, lastActivity *time.Time, sentEver func(typ string) (bool, error)) (*Candidate, error) {
	if lastActivity == nil || length < 1 {
		return nil, nil
	}

	for i := len(streakMilestones) - 1; i >= 0; i-- {
		m := streakMilestones[i]
		if m > length {
			continue
		}

		// The milestone was reached (length - m) days before the most
		// recent activity.
		achievedAt := lastActivity.AddDate(0, 0, -(length - m))
		since := now.Sub(achievedAt)
		if since < 0 || since > streakWindow {
			continue
		}

		typ := StreakType(m)
		sent, err := sentEver(typ)
		if err != nil {
			return nil, err
		}
		if sent {
			return nil, nil
		}

		return &Candidate{
			Type:  typ,
			Title: streakTitle(m),
			Body:  streakBody(m),
			Data: map[string]string{
				"milestone": fmt.Sprintf("%d", m),
				"streak":    fmt.Sprintf("%d", length),
			},
			Priority:              30,
			AllowDuringQuietHours: false,
			Dedup:                 DedupPermanent,
		}, nil
	}
	return nil, nil
}

func streakTitle(milestone int) string {
	switch milestone {
	case 1:
		return "First day logged!"
	case 3:
		return "3-day streak!"
	case 7:
		return "One week strong!"
	case 14:
		return "Two weeks in a row!"
	case 30:
		return "30-day streak!"
	case 100:
		return "100 days. Incredible!"
	case 365:
		return "A full year of logging!"
	case 1000:
		return "1000 days. Legendary!"
	default:
		return "Streak milestone reached!"
	}
}

func streakBody(milestone int) string {
	switch milestone {
	case 1:
		return "You logged your first day of meals. Great habits start with day one, keep it going!"
	case 3:
		return "Three days of logging in a row. You're building momentum!"
	case 7:
		return "Seven days straight. Logging is officially part of your routine now."
	case 14:
		return "Fourteen consecutive days of logging. Consistency like this pays off."
	case 30:
		return "A whole month of daily logging. You should be proud of this habit."
	case 100:
		return "One hundred days of logging without missing a beat. Remarkable dedication."
	case 365:
		return "365 days. You've logged every single day for a year. Truly exceptional."
	case 1000:
		return "One thousand days of logging. Few ever get here, and you did."
	default:
		return fmt.Sprintf("You've kept your logging streak going for %d days. Keep it up!", milestone)
	}
}
