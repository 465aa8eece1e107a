package calendar

import (
	"sort"

	"github.com/ilkka/allycal/internal/contract"
)

// ForDay projects the occurrence set onto a single selected day. Events are
// the normal and moved occurrences landing on that day; markers surface
// transparency entries: occurrences skipped on the day, and occurrences that
// originally belonged to the day but were moved elsewhere.
func ForDay(occs []contract.Occurrence, dateKey string) contract.DayAgenda {
	agenda := contract.DayAgenda{
		Date:    dateKey,
		Events:  []contract.Occurrence{},
		Markers: []contract.Occurrence{},
	}
	for _, occ := range occs {
		switch occ.RenderHint {
		case contract.HintSkipped:
			if occ.OriginalDateKey == dateKey {
				agenda.Markers = append(agenda.Markers, occ)
			}
		case contract.HintMoved:
			if occ.EffectiveDateKey == dateKey {
				agenda.Events = append(agenda.Events, occ)
			}
			if occ.OriginalDateKey == dateKey && occ.EffectiveDateKey != dateKey {
				agenda.Markers = append(agenda.Markers, occ)
			}
		default:
			if occ.EffectiveDateKey == dateKey {
				agenda.Events = append(agenda.Events, occ)
			}
		}
	}
	sortOccurrences(agenda.Events)
	sortOccurrences(agenda.Markers)
	return agenda
}

// sortOccurrences orders by start time ascending with empty times last, ties
// broken by title then source event id so output is stable for tests and
// snapshots.
func sortOccurrences(occs []contract.Occurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		a, b := occs[i], occs[j]
		if (a.StartTime == "") != (b.StartTime == "") {
			return a.StartTime != ""
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.SourceEventID < b.SourceEventID
	})
}
