package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "2024-01-10", DayKey(date(2024, 1, 10)))
	assert.Equal(t, "2023-12-31", DayKey(time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)))
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		// 2024-01-01 is a Monday, so it opens week 01
		{"first monday of 2024", date(2024, 1, 1), "2024-W01"},
		{"sunday after", date(2024, 1, 7), "2024-W01"},
		{"second monday", date(2024, 1, 8), "2024-W02"},
		{"wednesday", date(2024, 1, 10), "2024-W02"},
		// 2023-01-01 is a Sunday, before the first Monday
		{"days before first monday", date(2023, 1, 1), "2023-W00"},
		{"first monday of 2023", date(2023, 1, 2), "2023-W01"},
		{"end of 2023", date(2023, 12, 31), "2023-W52"},
		// 2025-01-01 is a Wednesday; Dec 30 2024 is the Monday of the same week
		{"year boundary old side", date(2024, 12, 30), "2024-W53"},
		{"year boundary new side", date(2025, 1, 1), "2025-W00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekKey(tt.t))
		})
	}
}

func TestWeekKey_SplitsWeekAtYearBoundary(t *testing.T) {
	// One Monday-to-Sunday week, two buckets
	assert.NotEqual(t, WeekKey(date(2024, 12, 31)), WeekKey(date(2025, 1, 1)))
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2024-01", MonthKey(date(2024, 1, 31)))
	assert.Equal(t, "2023-12", MonthKey(date(2023, 12, 1)))
}

func TestMonthKeyBefore(t *testing.T) {
	now := date(2024, 3, 31)

	tests := []struct {
		back int
		want string
	}{
		{0, "2024-03"},
		{1, "2024-02"},
		{2, "2024-01"},
		{3, "2023-12"},
		{11, "2023-04"},
		{14, "2023-01"},
		{15, "2022-12"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, monthKeyBefore(now, tt.back), "back %d", tt.back)
	}
}
