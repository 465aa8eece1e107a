package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilkka/allycal/internal/contract"
)

// instantLayouts are the accepted shapes for stored UTC timestamps. Historic
// rows were written by several generations of clients, so be liberal here.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseInstant parses a stored UTC timestamp string. Layouts without an
// explicit offset are interpreted as UTC.
func ParseInstant(v string) (time.Time, error) {
	s := strings.TrimSpace(v)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %s", v)
}

// Normalize converts raw store rows into canonical Events. Rows with a
// missing or unparseable start, or a blank title, are dropped without error:
// the calendar renders fewer events instead of failing to render. Output
// order preserves input order.
func Normalize(rows []contract.EventRow, opts Options) []Event {
	out := make([]Event, 0, len(rows))
	for _, row := range rows {
		ev, ok := normalizeRow(row, opts)
		if !ok {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// NormalizeDropped reports how many rows Normalize would reject, so callers
// can surface a diagnostic warning without changing the drop policy.
func NormalizeDropped(rows []contract.EventRow, opts Options) int {
	dropped := 0
	for _, row := range rows {
		if _, ok := normalizeRow(row, opts); !ok {
			dropped++
		}
	}
	return dropped
}

func normalizeRow(row contract.EventRow, opts Options) (Event, bool) {
	title := strings.TrimSpace(row.Title)
	if title == "" {
		return Event{}, false
	}
	start, err := ParseInstant(row.StartTimeUTC)
	if err != nil {
		return Event{}, false
	}
	end := start
	if strings.TrimSpace(row.EndTimeUTC) != "" {
		if parsed, err := ParseInstant(row.EndTimeUTC); err == nil && !parsed.Before(start) {
			end = parsed
		}
	}
	rec, days, _ := parseRecurrence(row.RecurrenceType, row.DaysOfWeek)
	ev := Event{
		ID:          row.ID,
		Title:       title,
		Description: row.Description,
		Start:       start,
		End:         end,
		DateKey:     opts.dateKey(start),
		Recurrence:  rec,
		DaysOfWeek:  days,
		StartClock:  opts.clock(start),
		AllianceID:  row.AllianceID,
		Visibility:  row.Visibility,
	}
	if !end.Equal(start) {
		ev.EndClock = opts.clock(end)
	}
	return ev, true
}
