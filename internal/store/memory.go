package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ilkka/allycal/internal/contract"
)

// Memory is an in-process store used by tests and dry runs. It mirrors the
// SQLite ordering guarantees so resolution behaves identically.
type Memory struct {
	mu         sync.Mutex
	events     []contract.EventRow
	exceptions []contract.ExceptionRow
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Close() error { return nil }

func (m *Memory) Doctor(context.Context) ([]contract.DoctorCheck, error) {
	return []contract.DoctorCheck{
		{Name: "store_open", Status: "ok", Message: "in-memory store"},
	}, nil
}

func (m *Memory) ListEvents(_ context.Context, f Filter) ([]contract.EventRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []contract.EventRow{}
	for _, r := range m.events {
		if f.AllianceID != "" && r.AllianceID != f.AllianceID {
			continue
		}
		if f.Visibility != "" && r.Visibility != f.Visibility {
			continue
		}
		if f.Until != "" && r.StartTimeUTC > f.Until {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTimeUTC != out[j].StartTimeUTC {
			return out[i].StartTimeUTC < out[j].StartTimeUTC
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) GetEvent(_ context.Context, id string) (*contract.EventRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.events {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
}

func (m *Memory) AddEvent(_ context.Context, row contract.EventRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC().Format(time.RFC3339)
	if row.CreatedAt == "" {
		row.CreatedAt = now
	}
	if row.UpdatedAt == "" {
		row.UpdatedAt = now
	}
	for _, r := range m.events {
		if r.ID == row.ID {
			return fmt.Errorf("event %s already exists", row.ID)
		}
	}
	m.events = append(m.events, row)
	return nil
}

func (m *Memory) UpdateEvent(ctx context.Context, id string, patch EventPatch) (*contract.EventRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if m.events[i].ID != id {
			continue
		}
		r := &m.events[i]
		apply := func(dst *string, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		apply(&r.Title, patch.Title)
		apply(&r.Description, patch.Description)
		apply(&r.StartTimeUTC, patch.StartTimeUTC)
		apply(&r.EndTimeUTC, patch.EndTimeUTC)
		apply(&r.RecurrenceType, patch.RecurrenceType)
		apply(&r.DaysOfWeek, patch.DaysOfWeek)
		apply(&r.Visibility, patch.Visibility)
		r.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		cp := *r
		return &cp, nil
	}
	return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
}

func (m *Memory) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.events {
		if r.ID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			kept := m.exceptions[:0]
			for _, ex := range m.exceptions {
				if ex.EventID != id {
					kept = append(kept, ex)
				}
			}
			m.exceptions = kept
			return nil
		}
	}
	return fmt.Errorf("event %s: %w", id, ErrNotFound)
}

func (m *Memory) ListExceptions(_ context.Context, eventIDs []string) ([]contract.ExceptionRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range eventIDs {
		wanted[id] = true
	}
	out := []contract.ExceptionRow{}
	for _, r := range m.exceptions {
		if wanted[r.EventID] {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt < out[j].UpdatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) AddException(_ context.Context, row contract.ExceptionRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(row.UpdatedAt) == "" {
		row.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	m.exceptions = append(m.exceptions, row)
	return nil
}

func (m *Memory) DeleteException(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.exceptions {
		if r.ID == id {
			m.exceptions = append(m.exceptions[:i], m.exceptions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("exception %s: %w", id, ErrNotFound)
}
