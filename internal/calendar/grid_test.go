package calendar

import (
	"testing"

	"github.com/ilkka/allycal/internal/contract"
)

func TestBuildGridAlwaysFortyTwoCells(t *testing.T) {
	for _, year := range []int{2024, 2025, 2026, 2027, 2028} {
		for month0 := 0; month0 < 12; month0++ {
			cells := BuildGrid(year, month0)
			if len(cells) != 42 {
				t.Fatalf("%d-%02d: got %d cells, want 42", year, month0+1, len(cells))
			}
		}
	}
}

func TestBuildGridFebruaryLeapAndNonLeap(t *testing.T) {
	countInMonth := func(cells []contract.MonthCell) int {
		n := 0
		for _, c := range cells {
			if c.InCurrentMonth {
				n++
			}
		}
		return n
	}
	if got := countInMonth(BuildGrid(2026, 1)); got != 28 {
		t.Fatalf("feb 2026: %d in-month cells, want 28", got)
	}
	if got := countInMonth(BuildGrid(2028, 1)); got != 29 {
		t.Fatalf("feb 2028: %d in-month cells, want 29", got)
	}
}

func TestBuildGridSundayFirstWithLeadingDays(t *testing.T) {
	// February 2026 starts on a Sunday, so the grid opens on the 1st.
	cells := BuildGrid(2026, 1)
	if cells[0].DateKey != "2026-02-01" || !cells[0].InCurrentMonth {
		t.Fatalf("unexpected first cell: %+v", cells[0])
	}
	if cells[41].DateKey != "2026-03-14" || cells[41].InCurrentMonth {
		t.Fatalf("unexpected last cell: %+v", cells[41])
	}

	// March 2026 starts on a Sunday too; January 2026 starts on a Thursday,
	// so its grid leads with four December days.
	jan := BuildGrid(2026, 0)
	if jan[0].DateKey != "2025-12-28" || jan[0].InCurrentMonth {
		t.Fatalf("unexpected january lead cell: %+v", jan[0])
	}
	if jan[4].DateKey != "2026-01-01" || !jan[4].InCurrentMonth {
		t.Fatalf("expected january 1st at index 4, got %+v", jan[4])
	}
}

func TestBuildGridWeekdayAlignment(t *testing.T) {
	cells := BuildGrid(2026, 4) // May 2026
	for i, cell := range cells {
		if got, want := int(cell.Date.Weekday()), i%7; got != want {
			t.Fatalf("cell %d: weekday=%d want=%d", i, got, want)
		}
	}
}

func annotatedOccurrence(id, date, title, start string) contract.Occurrence {
	return contract.Occurrence{
		SourceEventID:    id,
		OriginalDateKey:  date,
		EffectiveDateKey: date,
		Title:            title,
		StartTime:        start,
		RenderHint:       contract.HintNormal,
	}
}

func TestAnnotateGridCountsAndBudgets(t *testing.T) {
	cells := BuildGrid(2026, 1)
	occs := []contract.Occurrence{
		annotatedOccurrence("a", "2026-02-02", "Alpha", "09:00"),
		annotatedOccurrence("b", "2026-02-02", "Bravo", "10:00"),
		annotatedOccurrence("c", "2026-02-02", "Charlie", "11:00"),
		annotatedOccurrence("d", "2026-02-02", "Delta", "12:00"),
	}
	annotated := AnnotateGrid(cells, occs, Budgets{CellItems: 2, CellChars: 4})

	var day contract.MonthCell
	for _, c := range annotated {
		if c.DateKey == "2026-02-02" {
			day = c
			break
		}
	}
	if day.Count != 4 {
		t.Fatalf("count=%d want=4", day.Count)
	}
	if len(day.Titles) != 2 || day.More != 2 {
		t.Fatalf("titles=%v more=%d", day.Titles, day.More)
	}
	if day.Titles[0] != "Alp…" || day.Titles[1] != "Bra…" {
		t.Fatalf("truncation wrong: %v", day.Titles)
	}
}

func TestAnnotateGridExcludesSkipped(t *testing.T) {
	cells := BuildGrid(2026, 1)
	occs := []contract.Occurrence{
		annotatedOccurrence("a", "2026-02-02", "Alpha", "09:00"),
		{
			SourceEventID:    "b",
			OriginalDateKey:  "2026-02-02",
			EffectiveDateKey: "2026-02-02",
			Title:            "Skipped raid",
			RenderHint:       contract.HintSkipped,
		},
	}
	annotated := AnnotateGrid(cells, occs, Budgets{})
	for _, c := range annotated {
		if c.DateKey == "2026-02-02" {
			if c.Count != 1 || len(c.Titles) != 1 || c.Titles[0] != "Alpha" {
				t.Fatalf("skipped occurrence leaked into cell: %+v", c)
			}
			return
		}
	}
	t.Fatalf("cell for 2026-02-02 not found")
}

func TestAnnotateGridPlacesMovedByEffectiveDate(t *testing.T) {
	cells := BuildGrid(2026, 1)
	occs := []contract.Occurrence{
		{
			SourceEventID:    "a",
			OriginalDateKey:  "2026-02-02",
			EffectiveDateKey: "2026-02-05",
			Title:            "Moved council",
			RenderHint:       contract.HintMoved,
		},
	}
	annotated := AnnotateGrid(cells, occs, Budgets{})
	for _, c := range annotated {
		switch c.DateKey {
		case "2026-02-02":
			if c.Count != 0 {
				t.Fatalf("moved occurrence still on original date: %+v", c)
			}
		case "2026-02-05":
			if c.Count != 1 {
				t.Fatalf("moved occurrence missing from new date: %+v", c)
			}
		}
	}
}

func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "short", max: 10, want: "short"},
		{in: "exactly18chars----", max: 18, want: "exactly18chars----"},
		{in: "a very long alliance event title", max: 8, want: "a very …"},
		{in: "héllö wörld", max: 6, want: "héllö…"},
		{in: "xy", max: 1, want: "…"},
	}
	for _, tc := range tests {
		if got := truncateTitle(tc.in, tc.max); got != tc.want {
			t.Fatalf("truncateTitle(%q,%d)=%q want=%q", tc.in, tc.max, got, tc.want)
		}
	}
}
