package calendar

import (
	"slices"
	"time"

	"github.com/teambition/rrule-go"
)

// rruleWeekdays maps the stored 0=Sunday weekday numbering onto rrule's
// weekday constants.
var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// Expand returns every date key in [windowStart, windowEnd] (inclusive) on
// which an occurrence of the event falls, before exceptions are applied.
// Output is sorted ascending and deduplicated; the function is pure and
// idempotent, so callers may re-run it on every render.
//
// Rules, all anchored so that an event never recurs before its own DateKey:
//
//   - none: the event's own key if it lies in the window
//   - daily: every day from the key onward
//   - weekly/biweekly: days whose weekday is in DaysOfWeek (or the key's own
//     weekday when the set is empty); biweekly keeps every second week,
//     counted Sunday-first from the week containing the key
//   - monthly: the key's day-of-month; months too short for it are skipped
//     outright, never clamped to month end
//
// Malformed windows or keys yield an empty result rather than an error.
func Expand(ev Event, windowStart, windowEnd string) []string {
	ws, err := ParseDateKey(windowStart)
	if err != nil {
		return nil
	}
	we, err := ParseDateKey(windowEnd)
	if err != nil || we.Before(ws) {
		return nil
	}
	start, err := ParseDateKey(ev.DateKey)
	if err != nil {
		return nil
	}

	if ev.Recurrence == RecurNone || ev.Recurrence == "" {
		if start.Before(ws) || start.After(we) {
			return nil
		}
		return []string{ev.DateKey}
	}

	opt := rrule.ROption{
		Dtstart: start,
		Wkst:    rrule.SU,
	}
	switch ev.Recurrence {
	case RecurDaily:
		opt.Freq = rrule.DAILY
	case RecurWeekly, RecurBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 1
		if ev.Recurrence == RecurBiweekly {
			opt.Interval = 2
		}
		for _, wd := range ev.DaysOfWeek {
			if wd >= 0 && wd <= 6 {
				opt.Byweekday = append(opt.Byweekday, rruleWeekdays[wd])
			}
		}
	case RecurMonthly:
		// Day-of-month comes from Dtstart; rrule drops months that do not
		// have that day, which is exactly the skip-not-clamp policy we want.
		opt.Freq = rrule.MONTHLY
	default:
		if start.Before(ws) || start.After(we) {
			return nil
		}
		return []string{ev.DateKey}
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		if start.Before(ws) || start.After(we) {
			return nil
		}
		return []string{ev.DateKey}
	}

	times := rule.Between(ws, we, true)
	keys := make([]string, 0, len(times))
	for _, t := range times {
		keys = append(keys, FormatDateKey(t.In(time.UTC)))
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}
