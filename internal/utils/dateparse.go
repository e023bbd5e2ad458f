package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	agoRe    = regexp.MustCompile(`^(\d+)\s*([mhdj])\s+ago$`)
	relDayRe = regexp.MustCompile(`^(today|yesterday|tomorrow)(?:\s+(\d{1,2})[:h](\d{2}))?$`)
)

// ParseFlexibleDate parses a seeding or filter timestamp relative to now.
// Accepted: "now", "today", "yesterday 14:30", "3h ago", "2d ago",
// ISO dates with or without a time, and day-first dates ("02/06/2025 09:00").
func ParseFlexibleDate(input string, now time.Time, loc *time.Location) (time.Time, error) {
	raw := strings.TrimSpace(input)
	input = strings.ToLower(raw)
	if input == "" {
		return time.Time{}, fmt.Errorf("empty date input")
	}
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	if input == "now" {
		return now, nil
	}

	if m := relDayRe.FindStringSubmatch(input); m != nil {
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		switch m[1] {
		case "yesterday":
			day = day.AddDate(0, 0, -1)
		case "tomorrow":
			day = day.AddDate(0, 0, 1)
		}
		if m[2] != "" {
			h, _ := strconv.Atoi(m[2])
			mi, _ := strconv.Atoi(m[3])
			if h > 23 || mi > 59 {
				return time.Time{}, fmt.Errorf("invalid time of day: %s", input)
			}
			day = time.Date(day.Year(), day.Month(), day.Day(), h, mi, 0, 0, loc)
		}
		return day, nil
	}

	if m := agoRe.FindStringSubmatch(input); m != nil {
		num, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "m":
			return now.Add(-time.Duration(num) * time.Minute), nil
		case "h":
			return now.Add(-time.Duration(num) * time.Hour), nil
		default:
			return now.AddDate(0, 0, -num), nil
		}
	}

	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"02/01/2006 15:04",
		"02/01/2006",
		"2006/01/02",
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, raw, loc); err == nil {
			return t, nil
		}
	}
	for _, format := range []string{time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(format, raw); err == nil {
			return t.In(loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", input)
}

// GetDateRange returns start and end time for common presets. Weeks start
// on Monday.
func GetDateRange(preset string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch strings.ToLower(preset) {
	case "today":
		return today, today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), today.AddDate(0, 0, 2), nil
	case "week":
		weekday := int(now.Weekday())
		if weekday == 0 { // Sunday
			weekday = 7
		}
		start := today.AddDate(0, 0, -(weekday - 1))
		return start, start.AddDate(0, 0, 7), nil
	case "next7days", "next-7-days":
		return today, today.AddDate(0, 0, 7), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown date preset: %s", preset)
	}
}
