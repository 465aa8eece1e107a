package app

import (
	"fmt"
	"strconv"
	"strings"
)

// parseRepeatSpec turns a user-facing repeat spec into the stored
// recurrence_type and numeric days_of_week CSV (0=Sunday). Accepted forms:
// none, daily, monthly, weekly, weekly:mon,wed, biweekly, biweekly:fri.
func parseRepeatSpec(spec string) (string, string, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	if s == "" || s == "none" {
		return "none", "", nil
	}
	kind, daysPart, hasDays := strings.Cut(s, ":")
	kind = strings.TrimSpace(kind)
	switch kind {
	case "daily", "monthly":
		if hasDays {
			return "", "", fmt.Errorf("%s repeat does not take weekdays", kind)
		}
		return kind, "", nil
	case "weekly", "biweekly":
		if !hasDays {
			return kind, "", nil
		}
		csv, err := weekdayCSV(daysPart)
		if err != nil {
			return "", "", err
		}
		return kind, csv, nil
	default:
		return "", "", fmt.Errorf("invalid repeat spec: %s", spec)
	}
}

func weekdayCSV(daysPart string) (string, error) {
	parts := strings.Split(daysPart, ",")
	seen := map[int]bool{}
	nums := make([]string, 0, len(parts))
	for _, p := range parts {
		tok := strings.TrimSpace(p)
		if tok == "" {
			continue
		}
		n, err := parseWeekdayToken(tok)
		if err != nil {
			return "", err
		}
		if !seen[n] {
			seen[n] = true
			nums = append(nums, strconv.Itoa(n))
		}
	}
	if len(nums) == 0 {
		return "", fmt.Errorf("empty weekday list")
	}
	return strings.Join(nums, ","), nil
}

func parseWeekdayToken(tok string) (int, error) {
	switch strings.ToLower(tok) {
	case "sun", "sunday":
		return 0, nil
	case "mon", "monday":
		return 1, nil
	case "tue", "tues", "tuesday":
		return 2, nil
	case "wed", "wednesday":
		return 3, nil
	case "thu", "thur", "thurs", "thursday":
		return 4, nil
	case "fri", "friday":
		return 5, nil
	case "sat", "saturday":
		return 6, nil
	}
	if n, err := strconv.Atoi(tok); err == nil && n >= 0 && n <= 6 {
		return n, nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", tok)
}
