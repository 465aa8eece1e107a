package calendar

import (
	"fmt"
	"strings"
	"time"
)

const dateKeyLayout = "2006-01-02"

// DateKeyMode selects which calendar fields derive an event's grid date key.
// Local is what viewers expect; UTC exists for compatibility with historical
// event_date values that were computed from UTC components.
type DateKeyMode string

const (
	DateKeysLocal DateKeyMode = "local"
	DateKeysUTC   DateKeyMode = "utc"
)

func ParseDateKeyMode(v string) (DateKeyMode, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "local":
		return DateKeysLocal, nil
	case "utc":
		return DateKeysUTC, nil
	default:
		return DateKeysLocal, fmt.Errorf("invalid date key mode: %s", v)
	}
}

// ToLocalDateKey formats an instant as YYYY-MM-DD using the viewer's local
// calendar fields, so an event lands on the day a local wall clock shows.
func ToLocalDateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dateKeyLayout)
}

// ToUTCDateKey formats an instant as YYYY-MM-DD using UTC calendar fields.
func ToUTCDateKey(t time.Time) string {
	return t.UTC().Format(dateKeyLayout)
}

// ParseDateKey returns the UTC midnight instant for a date key. All pure date
// arithmetic in this package runs on UTC midnights so DST transitions in the
// viewer zone cannot shift a day boundary.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(dateKeyLayout, strings.TrimSpace(key), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

func FormatDateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}
