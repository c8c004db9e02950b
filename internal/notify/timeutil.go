package notify

import (
	"sort"
	"time"
)

// LocalDayBounds returns the half-open [start, end) of now's calendar day in
// the given location.
func LocalDayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// WithinQuietHours reports whether a minute of day falls inside the quiet
// window [start, end). Equal start and end means quiet hours are disabled;
// start > end wraps the window across midnight.
func WithinQuietHours(nowMinutes, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return nowMinutes >= start && nowMinutes < end
	}
	return nowMinutes >= start || nowMinutes < end
}

// MinuteOfDay returns minutes since midnight for t in its own location
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Median returns the median of the sample, or nil for an empty sample. For an
// even-length sample it is the floored mean of the two middle values.
func Median(sample []int) *int {
	if len(sample) == 0 {
		return nil
	}
	sorted := make([]int, len(sample))
	copy(sorted, sample)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	var m int
	if len(sorted)%2 == 0 {
		m = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		m = sorted[mid]
	}
	return &m
}
