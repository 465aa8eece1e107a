package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ilkka/allycal/internal/calendar"
	"github.com/ilkka/allycal/internal/contract"
)

type predicate struct {
	field string
	op    string
	value string
}

func parsePredicates(wheres []string) ([]predicate, error) {
	out := make([]predicate, 0, len(wheres))
	ops := []string{"==", "!=", "~", ">=", "<=", ">", "<"}
	for _, w := range wheres {
		s := strings.TrimSpace(w)
		if s == "" {
			continue
		}
		var op string
		var idx int
		for _, candidate := range ops {
			if i := strings.Index(s, candidate); i > 0 {
				op = candidate
				idx = i
				break
			}
		}
		if op == "" {
			return nil, fmt.Errorf("invalid where clause: %s", w)
		}
		field := strings.TrimSpace(s[:idx])
		val := strings.Trim(strings.TrimSpace(s[idx+len(op):]), "\"")
		if field == "" || val == "" {
			return nil, fmt.Errorf("invalid where clause: %s", w)
		}
		out = append(out, predicate{field: strings.ToLower(field), op: op, value: val})
	}
	return out, nil
}

func applyPredicates(items []contract.EventRow, preds []predicate) ([]contract.EventRow, error) {
	filtered := make([]contract.EventRow, 0, len(items))
	for _, e := range items {
		ok, err := matchesAll(e, preds)
		if err != nil {
			return nil, err
		}
		if ok {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func matchesAll(e contract.EventRow, preds []predicate) (bool, error) {
	for _, p := range preds {
		ok, err := matchesOne(e, p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchesOne(e contract.EventRow, p predicate) (bool, error) {
	switch p.field {
	case "title":
		return compareString(e.Title, p.op, p.value)
	case "description", "desc":
		return compareString(e.Description, p.op, p.value)
	case "id":
		return compareString(e.ID, p.op, p.value)
	case "alliance", "alliance_id":
		return compareString(e.AllianceID, p.op, p.value)
	case "visibility":
		return compareString(e.Visibility, p.op, p.value)
	case "recurrence", "recurrence_type":
		return compareString(e.RecurrenceType, p.op, p.value)
	case "start":
		return compareInstant(e.StartTimeUTC, p.op, p.value)
	case "end":
		return compareInstant(e.EndTimeUTC, p.op, p.value)
	default:
		return false, fmt.Errorf("unsupported field in --where: %s", p.field)
	}
}

func compareString(actual, op, expected string) (bool, error) {
	a := strings.ToLower(actual)
	e := strings.ToLower(expected)
	switch op {
	case "==":
		return a == e, nil
	case "!=":
		return a != e, nil
	case "~":
		return strings.Contains(a, e), nil
	default:
		return false, fmt.Errorf("operator %s not supported for string fields", op)
	}
}

func compareInstant(actual, op, expected string) (bool, error) {
	at, err := calendar.ParseInstant(actual)
	if err != nil {
		return false, nil
	}
	et, err := calendar.ParseInstant(expected)
	if err != nil {
		return false, fmt.Errorf("time predicate expects a datetime value, got %q", expected)
	}
	switch op {
	case "==":
		return at.Equal(et), nil
	case "!=":
		return !at.Equal(et), nil
	case ">":
		return at.After(et), nil
	case ">=":
		return at.After(et) || at.Equal(et), nil
	case "<":
		return at.Before(et), nil
	case "<=":
		return at.Before(et) || at.Equal(et), nil
	default:
		return false, fmt.Errorf("operator %s not supported for time fields", op)
	}
}

func sortEventRows(items []contract.EventRow, sortField, order string) {
	desc := strings.EqualFold(order, "desc")
	sort.SliceStable(items, func(i, j int) bool {
		var less bool
		switch strings.ToLower(sortField) {
		case "title":
			less = items[i].Title < items[j].Title
		case "end":
			less = items[i].EndTimeUTC < items[j].EndTimeUTC
		case "updated_at":
			less = items[i].UpdatedAt < items[j].UpdatedAt
		case "recurrence":
			less = items[i].RecurrenceType < items[j].RecurrenceType
		default:
			less = items[i].StartTimeUTC < items[j].StartTimeUTC
		}
		if desc {
			return !less
		}
		return less
	})
}
