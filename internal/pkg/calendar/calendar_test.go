package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToday_UsesTaipeiDay(t *testing.T) {
	// 2025-03-09 20:00 UTC is already 2025-03-10 in Taipei.
	now := time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-10", FormatDate(Today(now)))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-12")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-12", FormatDate(d))

	d, err = ParseDate("2025-03-12 09:10:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-12", FormatDate(d))

	_, err = ParseDate("12/03/2025")
	assert.Error(t, err)
}

func TestWeekday(t *testing.T) {
	mon, _ := ParseDate("2025-03-10")
	sun, _ := ParseDate("2025-03-16")
	assert.Equal(t, 1, Weekday(mon))
	assert.Equal(t, 7, Weekday(sun))
}

func TestMondayOf(t *testing.T) {
	cases := map[string]string{
		"2025-03-10": "2025-03-10", // Monday
		"2025-03-12": "2025-03-10", // Wednesday
		"2025-03-15": "2025-03-10", // Saturday
		"2025-03-16": "2025-03-10", // Sunday goes back six days
		"2025-03-03": "2025-03-03",
		"2025-01-01": "2024-12-30", // across a year boundary
	}
	for in, want := range cases {
		d, err := ParseDate(in)
		require.NoError(t, err)
		assert.Equal(t, want, FormatDate(MondayOf(d)), "input %s", in)
	}
}

func TestWeekDays(t *testing.T) {
	now := time.Date(2025, 3, 12, 4, 0, 0, 0, time.UTC) // Wednesday in Taipei
	assert.Equal(t,
		[]string{"2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13", "2025-03-14"},
		WeekDays(now, 0))
	assert.Equal(t, "2025-03-17", WeekDays(now, 1)[0])
	assert.Equal(t, "2025-03-03", WeekDays(now, -1)[0])
}

func TestWeekDays_Sunday(t *testing.T) {
	now := time.Date(2025, 3, 16, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-10", WeekDays(now, 0)[0])
}

func TestParseSections(t *testing.T) {
	assert.Equal(t, []int{5, 6, 7, 8}, ParseSections(5678))
	assert.Equal(t, []int{1, 2}, ParseSections(12))
	assert.Equal(t, []int{3}, ParseSections(3))
	assert.Empty(t, ParseSections(0))
}
