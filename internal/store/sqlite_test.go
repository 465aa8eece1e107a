package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ilkka/allycal/internal/contract"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "allycal.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testEvent(id, alliance, start string) contract.EventRow {
	return contract.EventRow{
		ID:             id,
		AllianceID:     alliance,
		Title:          "event " + id,
		StartTimeUTC:   start,
		RecurrenceType: "none",
		Visibility:     "alliance",
	}
}

func TestSQLiteEventRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	row := testEvent("ev1", "alpha", "2026-02-02T20:00:00Z")
	row.Description = "weekly sync"
	row.RecurrenceType = "weekly"
	row.DaysOfWeek = "1,3"
	if err := s.AddEvent(ctx, row); err != nil {
		t.Fatalf("AddEvent failed: %v", err)
	}

	got, err := s.GetEvent(ctx, "ev1")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if got.Title != "event ev1" || got.RecurrenceType != "weekly" || got.DaysOfWeek != "1,3" {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.CreatedAt == "" || got.UpdatedAt == "" {
		t.Fatalf("timestamps not stamped: %+v", got)
	}
}

func TestSQLiteListEventsFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_ = s.AddEvent(ctx, testEvent("ev1", "alpha", "2026-02-02T20:00:00Z"))
	_ = s.AddEvent(ctx, testEvent("ev2", "alpha", "2026-05-01T20:00:00Z"))
	_ = s.AddEvent(ctx, testEvent("ev3", "bravo", "2026-02-03T20:00:00Z"))

	rows, err := s.ListEvents(ctx, Filter{AllianceID: "alpha"})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "ev1" || rows[1].ID != "ev2" {
		t.Fatalf("alliance filter/order wrong: %+v", rows)
	}

	rows, err = s.ListEvents(ctx, Filter{AllianceID: "alpha", Until: "2026-03-01T00:00:00Z"})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "ev1" {
		t.Fatalf("until filter wrong: %+v", rows)
	}
}

func TestSQLiteUpdateEventPatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_ = s.AddEvent(ctx, testEvent("ev1", "alpha", "2026-02-02T20:00:00Z"))

	title := "renamed"
	rec := "daily"
	updated, err := s.UpdateEvent(ctx, "ev1", EventPatch{Title: &title, RecurrenceType: &rec})
	if err != nil {
		t.Fatalf("UpdateEvent failed: %v", err)
	}
	if updated.Title != "renamed" || updated.RecurrenceType != "daily" {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.StartTimeUTC != "2026-02-02T20:00:00Z" {
		t.Fatalf("unpatched field changed: %+v", updated)
	}
}

func TestSQLiteDeleteEventCascadesExceptions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_ = s.AddEvent(ctx, testEvent("ev1", "alpha", "2026-02-02T20:00:00Z"))
	_ = s.AddException(ctx, contract.ExceptionRow{
		ID: "x1", EventID: "ev1", OccurrenceDate: "2026-02-09", Action: "skip",
	})

	if err := s.DeleteEvent(ctx, "ev1"); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	if _, err := s.GetEvent(ctx, "ev1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	exceptions, err := s.ListExceptions(ctx, []string{"ev1"})
	if err != nil {
		t.Fatalf("ListExceptions failed: %v", err)
	}
	if len(exceptions) != 0 {
		t.Fatalf("exceptions not cascaded: %+v", exceptions)
	}
}

func TestSQLiteExceptionsOrderedByUpdateTime(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_ = s.AddEvent(ctx, testEvent("ev1", "alpha", "2026-02-02T20:00:00Z"))

	_ = s.AddException(ctx, contract.ExceptionRow{
		ID: "x2", EventID: "ev1", OccurrenceDate: "2026-02-09", Action: "override",
		NewDate: "2026-02-10", UpdatedAt: "2026-02-01T12:00:00Z",
	})
	_ = s.AddException(ctx, contract.ExceptionRow{
		ID: "x1", EventID: "ev1", OccurrenceDate: "2026-02-09", Action: "skip",
		UpdatedAt: "2026-02-01T10:00:00Z",
	})

	rows, err := s.ListExceptions(ctx, []string{"ev1"})
	if err != nil {
		t.Fatalf("ListExceptions failed: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "x1" || rows[1].ID != "x2" {
		t.Fatalf("ordering wrong: %+v", rows)
	}
}

func TestSQLiteDeleteMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.DeleteEvent(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteException(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteDoctor(t *testing.T) {
	s := openTestStore(t)
	checks, err := s.Doctor(context.Background())
	if err != nil {
		t.Fatalf("Doctor failed: %v", err)
	}
	if len(checks) < 3 {
		t.Fatalf("expected at least 3 checks, got %+v", checks)
	}
	for _, c := range checks {
		if c.Status != "ok" {
			t.Fatalf("check %s failed: %s", c.Name, c.Message)
		}
	}
}

func TestMemoryMatchesSQLiteOrdering(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.AddEvent(ctx, testEvent("ev2", "alpha", "2026-02-05T20:00:00Z"))
	_ = m.AddEvent(ctx, testEvent("ev1", "alpha", "2026-02-02T20:00:00Z"))
	rows, err := m.ListEvents(ctx, Filter{AllianceID: "alpha"})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "ev1" {
		t.Fatalf("memory ordering wrong: %+v", rows)
	}
}
