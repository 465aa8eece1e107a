package calendar

import (
	"strings"

	"github.com/ilkka/allycal/internal/contract"
)

// Conflict records a duplicate exception key that had to be resolved. These
// are diagnostics only; resolution never fails because of them.
type Conflict struct {
	EventID   string `json:"event_id"`
	DateKey   string `json:"date_key"`
	KeptID    string `json:"kept_id"`
	DroppedID string `json:"dropped_id"`
}

// Resolve applies per-occurrence exceptions to an expanded occurrence set.
// Exceptions are matched by (event id, original occurrence date key). When
// several exceptions share a key, the last one in the supplied order wins;
// the store returns rows ordered by update time, so last-wins means most
// recently updated. Skipped occurrences are retained with a skipped hint so
// the agenda can show an intentional gap instead of a silent absence.
func Resolve(ev Event, dateKeys []string, exceptions []contract.ExceptionRow) ([]contract.Occurrence, []Conflict) {
	byDate := make(map[string]contract.ExceptionRow)
	var conflicts []Conflict
	for _, ex := range exceptions {
		if ex.EventID != ev.ID {
			continue
		}
		key := strings.TrimSpace(ex.OccurrenceDate)
		if key == "" {
			continue
		}
		if prev, dup := byDate[key]; dup {
			conflicts = append(conflicts, Conflict{
				EventID:   ev.ID,
				DateKey:   key,
				KeptID:    ex.ID,
				DroppedID: prev.ID,
			})
		}
		byDate[key] = ex
	}

	out := make([]contract.Occurrence, 0, len(dateKeys))
	for _, dateKey := range dateKeys {
		ex, ok := byDate[dateKey]
		if !ok {
			out = append(out, baseOccurrence(ev, dateKey, contract.HintNormal))
			continue
		}
		switch strings.ToLower(strings.TrimSpace(ex.Action)) {
		case contract.ActionSkip:
			out = append(out, baseOccurrence(ev, dateKey, contract.HintSkipped))
		case contract.ActionOverride:
			out = append(out, overriddenOccurrence(ev, dateKey, ex))
		default:
			// Unknown action tags degrade to an untouched occurrence.
			out = append(out, baseOccurrence(ev, dateKey, contract.HintNormal))
		}
	}
	return out, conflicts
}

func baseOccurrence(ev Event, dateKey, hint string) contract.Occurrence {
	return contract.Occurrence{
		SourceEventID:    ev.ID,
		OriginalDateKey:  dateKey,
		EffectiveDateKey: dateKey,
		Title:            ev.Title,
		Description:      ev.Description,
		StartTime:        ev.StartClock,
		EndTime:          ev.EndClock,
		RenderHint:       hint,
		Visibility:       ev.Visibility,
	}
}

func overriddenOccurrence(ev Event, dateKey string, ex contract.ExceptionRow) contract.Occurrence {
	occ := baseOccurrence(ev, dateKey, contract.HintMoved)
	if v := strings.TrimSpace(ex.NewDate); v != "" {
		occ.EffectiveDateKey = v
	}
	if v := strings.TrimSpace(ex.NewStartTime); v != "" {
		occ.StartTime = v
	}
	if v := strings.TrimSpace(ex.NewEndTime); v != "" {
		occ.EndTime = v
	}
	if v := strings.TrimSpace(ex.NewTitle); v != "" {
		occ.Title = v
	}
	if v := strings.TrimSpace(ex.NewDescription); v != "" {
		occ.Description = v
	}
	return occ
}

// Project runs the full expansion and resolution pipeline for a batch of
// events over one visible window.
func Project(events []Event, exceptions []contract.ExceptionRow, windowStart, windowEnd string) ([]contract.Occurrence, []Conflict) {
	var occs []contract.Occurrence
	var conflicts []Conflict
	for _, ev := range events {
		keys := Expand(ev, windowStart, windowEnd)
		if len(keys) == 0 {
			continue
		}
		resolved, evConflicts := Resolve(ev, keys, exceptions)
		occs = append(occs, resolved...)
		conflicts = append(conflicts, evConflicts...)
	}
	return occs, conflicts
}
