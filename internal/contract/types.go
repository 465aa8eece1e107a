package contract

import "time"

const SchemaVersion = "v1"

type ErrorCode string

const (
	ErrGeneric          ErrorCode = "GENERIC_FAILURE"
	ErrInvalidUsage     ErrorCode = "INVALID_USAGE"
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrConflict         ErrorCode = "CONFLICT"
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
)

type ErrorEnvelope struct {
	SchemaVersion string         `json:"schema_version"`
	Error         ErrorBody      `json:"error"`
	Meta          map[string]any `json:"meta,omitempty"`
}

type ErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Hint    string    `json:"hint,omitempty"`
}

type SuccessEnvelope struct {
	SchemaVersion string         `json:"schema_version"`
	Command       string         `json:"command"`
	GeneratedAt   time.Time      `json:"generated_at"`
	Data          any            `json:"data"`
	Meta          map[string]any `json:"meta"`
	Warnings      []string       `json:"warnings"`
}

// EventRow is an event exactly as the store returns it. Timestamps are the
// persisted UTC strings; nothing here is parsed or validated yet.
type EventRow struct {
	ID             string `json:"id"`
	AllianceID     string `json:"alliance_id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	StartTimeUTC   string `json:"start_time_utc"`
	EndTimeUTC     string `json:"end_time_utc,omitempty"`
	RecurrenceType string `json:"recurrence_type"`
	DaysOfWeek     string `json:"days_of_week,omitempty"`
	Visibility     string `json:"visibility,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// ExceptionRow alters one occurrence of a recurring event. OccurrenceDate is
// always the original, unmodified date key of the occurrence being altered,
// even when the occurrence has been moved elsewhere.
type ExceptionRow struct {
	ID             string `json:"id"`
	EventID        string `json:"event_id"`
	OccurrenceDate string `json:"occurrence_date"`
	Action         string `json:"action"`
	NewDate        string `json:"new_date,omitempty"`
	NewStartTime   string `json:"new_start_time,omitempty"`
	NewEndTime     string `json:"new_end_time,omitempty"`
	NewTitle       string `json:"new_title,omitempty"`
	NewDescription string `json:"new_description,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

const (
	ActionSkip     = "skip"
	ActionOverride = "override"
)

const (
	HintNormal  = "normal"
	HintMoved   = "moved"
	HintSkipped = "skipped"
)

// Occurrence is one concrete calendar appearance of an event after
// exceptions have been applied. Grid placement uses EffectiveDateKey;
// OriginalDateKey is retained for markers and audit.
type Occurrence struct {
	SourceEventID    string `json:"source_event_id"`
	OriginalDateKey  string `json:"original_date_key"`
	EffectiveDateKey string `json:"effective_date_key"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	StartTime        string `json:"start_time,omitempty"`
	EndTime          string `json:"end_time,omitempty"`
	RenderHint       string `json:"render_hint"`
	Visibility       string `json:"visibility,omitempty"`
}

// MonthCell is one slot of the fixed 6x7 month grid. Count, Titles and More
// are filled in by grid annotation and omitted for bare grids.
type MonthCell struct {
	Date           time.Time `json:"date"`
	DateKey        string    `json:"date_key"`
	InCurrentMonth bool      `json:"in_current_month"`
	Count          int       `json:"count,omitempty"`
	Titles         []string  `json:"titles,omitempty"`
	More           int       `json:"more,omitempty"`
}

type DayAgenda struct {
	Date    string       `json:"date"`
	Events  []Occurrence `json:"events"`
	Markers []Occurrence `json:"markers"`
}

type DoctorCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
