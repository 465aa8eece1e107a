package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDateTime resolves the relaxed date selectors the CLI accepts: today,
// tomorrow, yesterday, signed day/week offsets (+3d, -2w), RFC3339, and a
// few date/datetime layouts interpreted in the given location.
func ParseDateTime(input string, now time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}

	switch s {
	case "today":
		y, m, d := now.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	case "tomorrow":
		v, _ := ParseDateTime("today", now, loc)
		return v.AddDate(0, 0, 1), nil
	case "yesterday":
		v, _ := ParseDateTime("today", now, loc)
		return v.AddDate(0, 0, -1), nil
	}

	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		sign := 1
		if strings.HasPrefix(s, "-") {
			sign = -1
		}
		raw := strings.TrimPrefix(strings.TrimPrefix(s, "+"), "-")
		days := 0
		switch {
		case strings.HasSuffix(raw, "d"):
			n, err := strconv.Atoi(strings.TrimSuffix(raw, "d"))
			if err != nil {
				return time.Time{}, fmt.Errorf("invalid relative day: %s", input)
			}
			days = n
		case strings.HasSuffix(raw, "w"):
			n, err := strconv.Atoi(strings.TrimSuffix(raw, "w"))
			if err != nil {
				return time.Time{}, fmt.Errorf("invalid relative week: %s", input)
			}
			days = n * 7
		default:
			return time.Time{}, fmt.Errorf("invalid relative selector: %s", input)
		}
		v, _ := ParseDateTime("today", now, loc)
		return v.AddDate(0, 0, sign*days), nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, input, loc); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported datetime format: %s", input)
}

// ParseMonth resolves a month selector (YYYY-MM) or any ParseDateTime
// selector, in which case the containing month is returned.
func ParseMonth(input string, now time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		s = "today"
	}
	if ts, err := time.ParseInLocation("2006-01", s, loc); err == nil {
		return ts, nil
	}
	ts, err := ParseDateTime(s, now, loc)
	if err != nil {
		return time.Time{}, err
	}
	y, m, _ := ts.In(loc).Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, loc), nil
}
