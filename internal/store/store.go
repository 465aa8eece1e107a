package store

import (
	"context"

	"github.com/ilkka/allycal/internal/contract"
)

// Filter narrows event reads. Until is compared against start_time_utc only:
// recurring events keep producing occurrences long after their stored start,
// so there is deliberately no lower bound.
type Filter struct {
	AllianceID string
	Visibility string
	Until      string
	Limit      int
}

type EventPatch struct {
	Title          *string
	Description    *string
	StartTimeUTC   *string
	EndTimeUTC     *string
	RecurrenceType *string
	DaysOfWeek     *string
	Visibility     *string
}

type Store interface {
	Doctor(context.Context) ([]contract.DoctorCheck, error)
	ListEvents(context.Context, Filter) ([]contract.EventRow, error)
	GetEvent(context.Context, string) (*contract.EventRow, error)
	AddEvent(context.Context, contract.EventRow) error
	UpdateEvent(context.Context, string, EventPatch) (*contract.EventRow, error)
	DeleteEvent(context.Context, string) error
	// ListExceptions returns rows for the given events ordered by update
	// time then id; resolution treats later rows as authoritative when keys
	// collide.
	ListExceptions(context.Context, []string) ([]contract.ExceptionRow, error)
	AddException(context.Context, contract.ExceptionRow) error
	DeleteException(context.Context, string) error
	Close() error
}
