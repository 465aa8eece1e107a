package app

import (
	"testing"
	"time"
)

func TestResolveEndDuration(t *testing.T) {
	start := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	end, err := resolveEnd("", "90m", start, time.UTC)
	if err != nil {
		t.Fatalf("resolveEnd error: %v", err)
	}
	want := start.Add(90 * time.Minute)
	if !end.Equal(want) {
		t.Fatalf("expected %s, got %s", want, end)
	}
}

func TestResolveEndBothSet(t *testing.T) {
	start := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	if _, err := resolveEnd("2026-02-10T13:00", "30m", start, time.UTC); err == nil {
		t.Fatalf("expected error when both end and duration are set")
	}
}

func TestResolveEndNeitherSet(t *testing.T) {
	start := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	end, err := resolveEnd("", "", start, time.UTC)
	if err != nil {
		t.Fatalf("resolveEnd error: %v", err)
	}
	if !end.IsZero() {
		t.Fatalf("expected zero end for open-ended event, got %s", end)
	}
}

func TestResolveEndBeforeStart(t *testing.T) {
	start := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	if _, err := resolveEnd("2026-02-09T13:00", "", start, time.UTC); err == nil {
		t.Fatalf("expected error for end before start")
	}
}

func TestShiftKey(t *testing.T) {
	if got := shiftKey("2026-02-01", 13); got != "2026-02-14" {
		t.Fatalf("shiftKey forward: got %s", got)
	}
	if got := shiftKey("2026-03-01", -1); got != "2026-02-28" {
		t.Fatalf("shiftKey backward: got %s", got)
	}
	if got := shiftKey("garbage", 5); got != "garbage" {
		t.Fatalf("shiftKey invalid: got %s", got)
	}
}

func TestUntilSlack(t *testing.T) {
	if got := untilSlack("2026-03-14"); got != "2026-03-16" {
		t.Fatalf("untilSlack: got %s", got)
	}
	if got := untilSlack("not-a-key"); got != "" {
		t.Fatalf("untilSlack invalid: got %q", got)
	}
}

func TestParseWeekStart(t *testing.T) {
	wd, err := parseWeekStart("monday")
	if err != nil || wd != time.Monday {
		t.Fatalf("expected monday, got %v err=%v", wd, err)
	}
	wd, err = parseWeekStart("sun")
	if err != nil || wd != time.Sunday {
		t.Fatalf("expected sunday, got %v err=%v", wd, err)
	}
	if _, err := parseWeekStart("fri"); err == nil {
		t.Fatalf("expected error for invalid week start")
	}
}

func TestErrorCodeForExit(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{2, "INVALID_USAGE"},
		{4, "NOT_FOUND"},
		{6, "STORE_UNAVAILABLE"},
		{1, "GENERIC_FAILURE"},
	}
	for _, tt := range tests {
		if got := string(errorCodeForExit(tt.code)); got != tt.want {
			t.Fatalf("exit %d: got %s want %s", tt.code, got, tt.want)
		}
	}
}

func TestWantsStructuredErrorOutput(t *testing.T) {
	if !wantsStructuredErrorOutput([]string{"month", "--json"}) {
		t.Fatalf("expected true for --json")
	}
	if wantsStructuredErrorOutput([]string{"month", "--", "--json"}) {
		t.Fatalf("expected false after --")
	}
	if wantsStructuredErrorOutput([]string{"month", "--plain"}) {
		t.Fatalf("expected false for --plain")
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" title , start_time ,,")
	if len(got) != 2 || got[0] != "title" || got[1] != "start_time" {
		t.Fatalf("splitCSV: got %v", got)
	}
	if splitCSV("  ") != nil {
		t.Fatalf("expected nil for blank input")
	}
}
