package reminder

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// ParseWeekday accepts mon..sun, case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return wd, nil
}

// ParseClock reads "H:MM", "HH:MM" or "HHMM".
func ParseClock(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	var hs, ms string
	if h, m, ok := strings.Cut(s, ":"); ok {
		hs, ms = h, m
	} else if len(s) == 4 {
		hs, ms = s[:2], s[2:]
	} else {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	hour, err1 := strconv.Atoi(hs)
	minute, err2 := strconv.Atoi(ms)
	if err1 != nil || err2 != nil || len(ms) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q is out of range", ErrInvalidTime, s)
	}
	return hour, minute, nil
}

// ResolveClock turns a time of day into the next matching instant: today,
// or tomorrow when that minute has already passed.
func ResolveClock(s string, now time.Time) (time.Time, error) {
	hour, minute, err := ParseClock(s)
	if err != nil {
		return time.Time{}, err
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if at.Before(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, nil
}

// ResolveWeekday moves t forward to the next wd. A target on or before
// t's own weekday lands in the following week.
func ResolveWeekday(t time.Time, wd time.Weekday) time.Time {
	days := int(wd) - int(t.Weekday())
	if days <= 0 {
		days += 7
	}
	return t.AddDate(0, 0, days)
}

// ParseDateTime parses "YYYY-MM-DD HH:MM" (seconds tolerated and dropped).
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateTimeLayout, time.DateTime} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.Truncate(time.Minute), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q, expected YYYY-MM-DD HH:MM", ErrInvalidTime, s)
}

// FormatDateTime renders t in the persisted layout.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// RepairDateTime returns the canonical form of a persisted datetime. A bare
// time of day is resolved against now. changed reports a rewrite.
func RepairDateTime(s string, now time.Time) (fixed string, changed bool, err error) {
	if t, err := ParseDateTime(s, now.Location()); err == nil {
		fixed = FormatDateTime(t)
		return fixed, fixed != s, nil
	}
	if strings.Contains(s, "-") {
		return "", false, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	t, err := ResolveClock(s, now)
	if err != nil {
		return "", false, err
	}
	return FormatDateTime(t), true, nil
}
