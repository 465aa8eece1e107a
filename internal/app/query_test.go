package app

import (
	"testing"

	"github.com/ilkka/allycal/internal/contract"
)

func queryFixtureRows() []contract.EventRow {
	return []contract.EventRow{
		{ID: "a", Title: "Guild Raid", AllianceID: "horde", Visibility: "member", StartTimeUTC: "2026-02-02T19:00:00Z", RecurrenceType: "weekly", UpdatedAt: "2026-01-02T00:00:00Z"},
		{ID: "b", Title: "War Council", AllianceID: "horde", Visibility: "officer", StartTimeUTC: "2026-02-04T17:00:00Z", RecurrenceType: "none", UpdatedAt: "2026-01-01T00:00:00Z"},
		{ID: "c", Title: "Alliance Fair", AllianceID: "kirin", Visibility: "member", StartTimeUTC: "2026-03-01T12:00:00Z", RecurrenceType: "monthly", UpdatedAt: "2026-01-03T00:00:00Z"},
	}
}

func TestParsePredicates(t *testing.T) {
	preds, err := parsePredicates([]string{`title~"raid"`, "visibility==member", "start>=2026-02-01"})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(preds) != 3 {
		t.Fatalf("expected 3 predicates, got %d", len(preds))
	}
	if preds[0].field != "title" || preds[0].op != "~" || preds[0].value != "raid" {
		t.Fatalf("predicate 0: %+v", preds[0])
	}
	if preds[2].op != ">=" {
		t.Fatalf("predicate 2: %+v", preds[2])
	}
}

func TestParsePredicatesInvalid(t *testing.T) {
	for _, clause := range []string{"title raid", "==value", "title=="} {
		if _, err := parsePredicates([]string{clause}); err == nil {
			t.Fatalf("%q: expected error", clause)
		}
	}
}

func TestApplyPredicatesStringOps(t *testing.T) {
	rows := queryFixtureRows()
	preds, _ := parsePredicates([]string{"alliance==horde", `title~"raid"`})
	got, err := applyPredicates(rows, preds)
	if err != nil {
		t.Fatalf("apply error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("result: %+v", got)
	}
}

func TestApplyPredicatesTimeOps(t *testing.T) {
	rows := queryFixtureRows()
	preds, _ := parsePredicates([]string{"start>2026-02-03"})
	got, err := applyPredicates(rows, preds)
	if err != nil {
		t.Fatalf("apply error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
		t.Fatalf("result: %+v", got)
	}
}

func TestApplyPredicatesUnsupportedField(t *testing.T) {
	rows := queryFixtureRows()
	preds, _ := parsePredicates([]string{"location==hall"})
	if _, err := applyPredicates(rows, preds); err == nil {
		t.Fatalf("expected unsupported field error")
	}
}

func TestApplyPredicatesBadTimeValue(t *testing.T) {
	rows := queryFixtureRows()
	preds, _ := parsePredicates([]string{"start>soon"})
	if _, err := applyPredicates(rows, preds); err == nil {
		t.Fatalf("expected bad time value error")
	}
}

func TestSortEventRows(t *testing.T) {
	rows := queryFixtureRows()
	sortEventRows(rows, "title", "asc")
	if rows[0].Title != "Alliance Fair" || rows[2].Title != "War Council" {
		t.Fatalf("title asc: %+v", rows)
	}
	sortEventRows(rows, "updated_at", "desc")
	if rows[0].ID != "c" || rows[2].ID != "b" {
		t.Fatalf("updated_at desc: %+v", rows)
	}
	sortEventRows(rows, "start", "asc")
	if rows[0].ID != "a" || rows[2].ID != "c" {
		t.Fatalf("start asc: %+v", rows)
	}
}
