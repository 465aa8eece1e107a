package calendar

import (
	"strconv"
	"strings"
	"time"

	strftime "github.com/ncruces/go-strftime"
)

type Recurrence string

const (
	RecurNone     Recurrence = "none"
	RecurDaily    Recurrence = "daily"
	RecurWeekly   Recurrence = "weekly"
	RecurBiweekly Recurrence = "biweekly"
	RecurMonthly  Recurrence = "monthly"
)

// Event is the canonical in-memory record the engine works with. It is built
// once per load by Normalize and never mutated afterwards.
type Event struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time

	// DateKey is the grid placement key derived from Start per the
	// configured DateKeyMode.
	DateKey string

	Recurrence Recurrence
	DaysOfWeek []time.Weekday

	// StartClock/EndClock are the wall-clock render strings for occurrences,
	// formatted in the viewer zone with the configured strftime pattern.
	StartClock string
	EndClock   string

	// Pass-through fields the engine carries but never interprets.
	AllianceID string
	Visibility string
}

// Options configures key derivation and time rendering for normalization.
// The zero value means local zone, local date keys, %H:%M clocks.
type Options struct {
	Location   *time.Location
	DateKeys   DateKeyMode
	TimeFormat string
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

func (o Options) timeFormat() string {
	if strings.TrimSpace(o.TimeFormat) == "" {
		return "%H:%M"
	}
	return o.TimeFormat
}

func (o Options) dateKey(t time.Time) string {
	if o.DateKeys == DateKeysUTC {
		return ToUTCDateKey(t)
	}
	return ToLocalDateKey(t, o.location())
}

func (o Options) clock(t time.Time) string {
	return strftime.Format(o.timeFormat(), t.In(o.location()))
}

// parseRecurrence maps a stored recurrence tag and days_of_week CSV to the
// engine's rule shape. Anything unrecognized degrades to RecurNone rather
// than failing: a bad rule must never take down the whole grid.
func parseRecurrence(tag, daysCSV string) (Recurrence, []time.Weekday, bool) {
	var rec Recurrence
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "none":
		rec = RecurNone
	case "daily":
		rec = RecurDaily
	case "weekly":
		rec = RecurWeekly
	case "biweekly":
		rec = RecurBiweekly
	case "monthly":
		rec = RecurMonthly
	default:
		return RecurNone, nil, false
	}
	days, ok := parseDaysOfWeek(daysCSV)
	if !ok {
		return RecurNone, nil, false
	}
	if rec != RecurWeekly && rec != RecurBiweekly {
		days = nil
	}
	return rec, days, true
}

// parseDaysOfWeek parses "1,3" style CSV into weekdays, 0=Sunday. An empty
// value is a valid empty set; any out-of-range or non-numeric token poisons
// the whole value.
func parseDaysOfWeek(csv string) ([]time.Weekday, bool) {
	s := strings.TrimSpace(csv)
	if s == "" {
		return nil, true
	}
	parts := strings.Split(s, ",")
	seen := map[time.Weekday]bool{}
	out := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		tok := strings.TrimSpace(p)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 || n > 6 {
			return nil, false
		}
		wd := time.Weekday(n)
		if !seen[wd] {
			seen[wd] = true
			out = append(out, wd)
		}
	}
	return out, true
}
