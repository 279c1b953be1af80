// Package calendar holds the date arithmetic behind the weekly schedule views.
// All dates are interpreted in Taiwan time regardless of the server's zone.
package calendar

import (
	"fmt"
	"strconv"
	"time"
)

// Taipei is UTC+8 without DST; a fixed zone avoids depending on tzdata.
var Taipei = time.FixedZone("CST", 8*60*60)

const (
	DateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Today returns midnight of now's calendar day in Taipei.
func Today(now time.Time) time.Time {
	t := now.In(Taipei)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Taipei)
}

// ParseDate parses "YYYY-MM-DD" or "YYYY-MM-DD hh:mm:ss" as a Taipei date.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{DateLayout, dateTimeLayout} {
		if t, err := time.ParseInLocation(layout, s, Taipei); err == nil {
			return Today(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// FormatDate renders t as YYYY-MM-DD in Taipei.
func FormatDate(t time.Time) string {
	return t.In(Taipei).Format(DateLayout)
}

// Weekday numbers days Monday=1 through Sunday=7.
func Weekday(t time.Time) int {
	d := int(t.In(Taipei).Weekday())
	if d == 0 {
		return 7
	}
	return d
}

// MondayOf returns the Monday of the week containing t. Sunday belongs to the
// week that started six days earlier.
func MondayOf(t time.Time) time.Time {
	day := Today(t)
	return day.AddDate(0, 0, 1-Weekday(day))
}

// WeekDays returns Monday to Friday of the week offset weeks from now's week.
// Offset 0 is the current week, -1 the previous one.
func WeekDays(now time.Time, offset int) []string {
	monday := MondayOf(now).AddDate(0, 0, 7*offset)
	days := make([]string, 5)
	for i := range days {
		days[i] = FormatDate(monday.AddDate(0, 0, i))
	}
	return days
}

// ParseSections splits a packed section number into its period digits:
// 5678 -> [5 6 7 8]. Zero digits carry no period and are dropped.
func ParseSections(section int) []int {
	if section < 0 {
		section = -section
	}
	s := strconv.Itoa(section)
	out := make([]int, 0, len(s))
	for _, r := range s {
		if p := int(r - '0'); p > 0 {
			out = append(out, p)
		}
	}
	return out
}
