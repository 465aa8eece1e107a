package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ilkka/allycal/internal/contract"
)

var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id              TEXT PRIMARY KEY,
	alliance_id     TEXT NOT NULL,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	start_time_utc  TEXT NOT NULL,
	end_time_utc    TEXT NOT NULL DEFAULT '',
	recurrence_type TEXT NOT NULL DEFAULT 'none',
	days_of_week    TEXT NOT NULL DEFAULT '',
	visibility      TEXT NOT NULL DEFAULT 'alliance',
	created_at      TEXT NOT NULL DEFAULT '',
	updated_at      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_events_alliance_start ON events(alliance_id, start_time_utc);

CREATE TABLE IF NOT EXISTS event_exceptions (
	id              TEXT PRIMARY KEY,
	event_id        TEXT NOT NULL,
	occurrence_date TEXT NOT NULL,
	action          TEXT NOT NULL,
	new_date        TEXT NOT NULL DEFAULT '',
	new_start_time  TEXT NOT NULL DEFAULT '',
	new_end_time    TEXT NOT NULL DEFAULT '',
	new_title       TEXT NOT NULL DEFAULT '',
	new_description TEXT NOT NULL DEFAULT '',
	updated_at      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_exceptions_event ON event_exceptions(event_id, occurrence_date);
`

// SQLite is the default store. The modernc driver keeps the binary cgo-free.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// SQLite serializes writers; a single connection avoids busy errors
	// on concurrent command invocations against the same file.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Doctor(ctx context.Context) ([]contract.DoctorCheck, error) {
	checks := []contract.DoctorCheck{}

	if err := s.db.PingContext(ctx); err != nil {
		checks = append(checks, contract.DoctorCheck{Name: "store_open", Status: "fail", Message: err.Error()})
		return checks, err
	}
	checks = append(checks, contract.DoctorCheck{Name: "store_open", Status: "ok", Message: "store reachable"})

	for _, table := range []string{"events", "event_exceptions"} {
		var name string
		err := s.db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			checks = append(checks, contract.DoctorCheck{Name: "table_" + table, Status: "fail", Message: err.Error()})
			continue
		}
		checks = append(checks, contract.DoctorCheck{Name: "table_" + table, Status: "ok", Message: "table present"})
	}

	if _, err := s.db.ExecContext(ctx, `PRAGMA quick_check`); err != nil {
		checks = append(checks, contract.DoctorCheck{Name: "store_integrity", Status: "fail", Message: err.Error()})
	} else {
		checks = append(checks, contract.DoctorCheck{Name: "store_integrity", Status: "ok", Message: "quick_check passed"})
	}
	return checks, nil
}

const eventColumns = `id, alliance_id, title, description, start_time_utc, end_time_utc,
	recurrence_type, days_of_week, visibility, created_at, updated_at`

func (s *SQLite) ListEvents(ctx context.Context, f Filter) ([]contract.EventRow, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var clauses []string
	var args []any
	if strings.TrimSpace(f.AllianceID) != "" {
		clauses = append(clauses, "alliance_id = ?")
		args = append(args, f.AllianceID)
	}
	if strings.TrimSpace(f.Visibility) != "" {
		clauses = append(clauses, "visibility = ?")
		args = append(args, f.Visibility)
	}
	if strings.TrimSpace(f.Until) != "" {
		clauses = append(clauses, "start_time_utc <= ?")
		args = append(args, f.Until)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY start_time_utc, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := []contract.EventRow{}
	for rows.Next() {
		var r contract.EventRow
		if err := rows.Scan(&r.ID, &r.AllianceID, &r.Title, &r.Description, &r.StartTimeUTC,
			&r.EndTimeUTC, &r.RecurrenceType, &r.DaysOfWeek, &r.Visibility, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) GetEvent(ctx context.Context, id string) (*contract.EventRow, error) {
	var r contract.EventRow
	err := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id).
		Scan(&r.ID, &r.AllianceID, &r.Title, &r.Description, &r.StartTimeUTC,
			&r.EndTimeUTC, &r.RecurrenceType, &r.DaysOfWeek, &r.Visibility, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &r, nil
}

func (s *SQLite) AddEvent(ctx context.Context, row contract.EventRow) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if row.CreatedAt == "" {
		row.CreatedAt = now
	}
	if row.UpdatedAt == "" {
		row.UpdatedAt = now
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		row.ID, row.AllianceID, row.Title, row.Description, row.StartTimeUTC,
		row.EndTimeUTC, row.RecurrenceType, row.DaysOfWeek, row.Visibility, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add event: %w", err)
	}
	return nil
}

func (s *SQLite) UpdateEvent(ctx context.Context, id string, patch EventPatch) (*contract.EventRow, error) {
	current, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&current.Title, patch.Title)
	apply(&current.Description, patch.Description)
	apply(&current.StartTimeUTC, patch.StartTimeUTC)
	apply(&current.EndTimeUTC, patch.EndTimeUTC)
	apply(&current.RecurrenceType, patch.RecurrenceType)
	apply(&current.DaysOfWeek, patch.DaysOfWeek)
	apply(&current.Visibility, patch.Visibility)
	current.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	_, err = s.db.ExecContext(ctx,
		`UPDATE events SET title=?, description=?, start_time_utc=?, end_time_utc=?,
			recurrence_type=?, days_of_week=?, visibility=?, updated_at=? WHERE id=?`,
		current.Title, current.Description, current.StartTimeUTC, current.EndTimeUTC,
		current.RecurrenceType, current.DaysOfWeek, current.Visibility, current.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return current, nil
}

func (s *SQLite) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	// Orphaned exceptions are useless once the series is gone.
	_, _ = s.db.ExecContext(ctx, `DELETE FROM event_exceptions WHERE event_id = ?`, id)
	return nil
}

func (s *SQLite) ListExceptions(ctx context.Context, eventIDs []string) ([]contract.ExceptionRow, error) {
	if len(eventIDs) == 0 {
		return []contract.ExceptionRow{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(eventIDs)), ",")
	args := make([]any, 0, len(eventIDs))
	for _, id := range eventIDs {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, occurrence_date, action, new_date, new_start_time,
			new_end_time, new_title, new_description, updated_at
		 FROM event_exceptions WHERE event_id IN (`+placeholders+`)
		 ORDER BY updated_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}
	defer rows.Close()

	out := []contract.ExceptionRow{}
	for rows.Next() {
		var r contract.ExceptionRow
		if err := rows.Scan(&r.ID, &r.EventID, &r.OccurrenceDate, &r.Action, &r.NewDate,
			&r.NewStartTime, &r.NewEndTime, &r.NewTitle, &r.NewDescription, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan exception: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) AddException(ctx context.Context, row contract.ExceptionRow) error {
	if row.UpdatedAt == "" {
		row.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event_exceptions (id, event_id, occurrence_date, action, new_date,
			new_start_time, new_end_time, new_title, new_description, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		row.ID, row.EventID, row.OccurrenceDate, row.Action, row.NewDate,
		row.NewStartTime, row.NewEndTime, row.NewTitle, row.NewDescription, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add exception: %w", err)
	}
	return nil
}

func (s *SQLite) DeleteException(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM event_exceptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete exception: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("exception %s: %w", id, ErrNotFound)
	}
	return nil
}
