package calendar

import (
	"testing"

	"github.com/ilkka/allycal/internal/contract"
)

func TestForDaySkippedExcludedFromEvents(t *testing.T) {
	occs := []contract.Occurrence{
		{
			SourceEventID:    "ev1",
			OriginalDateKey:  "2026-02-02",
			EffectiveDateKey: "2026-02-02",
			Title:            "War council",
			RenderHint:       contract.HintSkipped,
		},
	}
	agenda := ForDay(occs, "2026-02-02")
	if len(agenda.Events) != 0 {
		t.Fatalf("skipped occurrence listed as event: %+v", agenda.Events)
	}
	if len(agenda.Markers) != 1 || agenda.Markers[0].RenderHint != contract.HintSkipped {
		t.Fatalf("expected skipped marker, got %+v", agenda.Markers)
	}
}

func TestForDayMovedAppearsOnNewDateWithMarkerOnOld(t *testing.T) {
	occs := []contract.Occurrence{
		{
			SourceEventID:    "ev1",
			OriginalDateKey:  "2026-02-02",
			EffectiveDateKey: "2026-02-05",
			Title:            "War council",
			StartTime:        "20:00",
			RenderHint:       contract.HintMoved,
		},
	}
	newDay := ForDay(occs, "2026-02-05")
	if len(newDay.Events) != 1 || newDay.Events[0].EffectiveDateKey != "2026-02-05" {
		t.Fatalf("moved occurrence missing from new date: %+v", newDay.Events)
	}
	if len(newDay.Markers) != 0 {
		t.Fatalf("unexpected markers on new date: %+v", newDay.Markers)
	}

	oldDay := ForDay(occs, "2026-02-02")
	if len(oldDay.Events) != 0 {
		t.Fatalf("moved occurrence still listed on old date: %+v", oldDay.Events)
	}
	if len(oldDay.Markers) != 1 || oldDay.Markers[0].OriginalDateKey != "2026-02-02" {
		t.Fatalf("expected moved-away marker on old date, got %+v", oldDay.Markers)
	}
}

func TestForDaySortsByStartTimeEmptiesLast(t *testing.T) {
	mk := func(id, title, start string) contract.Occurrence {
		return contract.Occurrence{
			SourceEventID:    id,
			OriginalDateKey:  "2026-02-02",
			EffectiveDateKey: "2026-02-02",
			Title:            title,
			StartTime:        start,
			RenderHint:       contract.HintNormal,
		}
	}
	occs := []contract.Occurrence{
		mk("d", "All hands", ""),
		mk("c", "Bravo", "09:00"),
		mk("b", "Alpha", "09:00"),
		mk("a", "Zulu", "07:30"),
	}
	agenda := ForDay(occs, "2026-02-02")
	got := make([]string, 0, len(agenda.Events))
	for _, e := range agenda.Events {
		got = append(got, e.Title)
	}
	want := []string{"Zulu", "Alpha", "Bravo", "All hands"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order=%v want=%v", got, want)
		}
	}
}

func TestForDayEmptyInputs(t *testing.T) {
	agenda := ForDay(nil, "2026-02-02")
	if agenda.Date != "2026-02-02" {
		t.Fatalf("date=%s", agenda.Date)
	}
	if agenda.Events == nil || agenda.Markers == nil {
		t.Fatalf("events/markers must be empty slices, not nil")
	}
	if len(agenda.Events) != 0 || len(agenda.Markers) != 0 {
		t.Fatalf("expected empty agenda, got %+v", agenda)
	}
}

func TestForDayIgnoresOtherDates(t *testing.T) {
	occs := []contract.Occurrence{
		{
			SourceEventID:    "ev1",
			OriginalDateKey:  "2026-02-03",
			EffectiveDateKey: "2026-02-03",
			Title:            "Elsewhere",
			RenderHint:       contract.HintNormal,
		},
	}
	agenda := ForDay(occs, "2026-02-02")
	if len(agenda.Events) != 0 || len(agenda.Markers) != 0 {
		t.Fatalf("occurrence from another day leaked in: %+v", agenda)
	}
}
