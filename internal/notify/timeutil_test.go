package notify

import (
	"testing"
	"time"
)

func TestWithinQuietHours(t *testing.T) {
	tests := []struct {
		name       string
		now        int
		start, end int
		want       bool
	}{
		{"disabled when start equals end", 12 * 60, 8 * 60, 8 * 60, false},
		{"disabled even at the boundary minute", 8 * 60, 8 * 60, 8 * 60, false},
		{"inside simple window", 10 * 60, 9 * 60, 17 * 60, true},
		{"at window start", 9 * 60, 9 * 60, 17 * 60, true},
		{"at window end is outside", 17 * 60, 9 * 60, 17 * 60, false},
		{"before simple window", 8 * 60, 9 * 60, 17 * 60, false},
		{"wrap: late evening inside", 23 * 60, 22 * 60, 7 * 60, true},
		{"wrap: early morning inside", 6 * 60, 22 * 60, 7 * 60, true},
		{"wrap: midday outside", 12 * 60, 22 * 60, 7 * 60, false},
		{"wrap: at wrapped end is outside", 7 * 60, 22 * 60, 7 * 60, false},
		{"wrap: midnight inside", 0, 22 * 60, 7 * 60, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinQuietHours(tt.now, tt.start, tt.end); got != tt.want {
				t.Errorf("WithinQuietHours(%d, %d, %d) = %v, want %v", tt.now, tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestMedian(t *testing.T) {
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		name   string
		sample []int
		want   *int
	}{
		{"empty sample", nil, nil},
		{"single value", []int{5}, intPtr(5)},
		{"odd length", []int{30, 10, 20}, intPtr(20)},
		{"even length floors the mean", []int{1, 2, 3, 4}, intPtr(2)},
		{"even length with gap", []int{100, 200}, intPtr(150)},
		{"unsorted input", []int{900, 450, 460, 470, 1200}, intPtr(470)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Median(tt.sample)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("Median(%v) = %v, want %v", tt.sample, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("Median(%v) = %d, want %d", tt.sample, *got, *tt.want)
			}
		})
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	sample := []int{3, 1, 2}
	Median(sample)
	if sample[0] != 3 || sample[1] != 1 || sample[2] != 2 {
		t.Errorf("Median mutated its input: %v", sample)
	}
}

func TestLocalDayBounds(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}

	// 2025-03-10 23:30 UTC is already 2025-03-11 08:30 in Tokyo
	now := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	start, end := LocalDayBounds(now, tokyo)

	wantStart := time.Date(2025, 3, 11, 0, 0, 0, 0, tokyo)
	wantEnd := time.Date(2025, 3, 12, 0, 0, 0, 0, tokyo)

	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestMinuteOfDay(t *testing.T) {
	ts := time.Date(2025, 3, 10, 14, 45, 59, 0, time.UTC)
	if got := MinuteOfDay(ts); got != 14*60+45 {
		t.Errorf("MinuteOfDay = %d, want %d", got, 14*60+45)
	}
}

func TestSinceTarget(t *testing.T) {
	tests := []struct {
		name        string
		now, target int
		want        int
	}{
		{"same minute", 600, 600, 0},
		{"after target", 630, 600, 30},
		{"before target wraps forward", 590, 600, 1430},
		{"target near midnight spills over", 10, 1430, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sinceTarget(tt.now, tt.target); got != tt.want {
				t.Errorf("sinceTarget(%d, %d) = %d, want %d", tt.now, tt.target, got, tt.want)
			}
		})
	}
}
