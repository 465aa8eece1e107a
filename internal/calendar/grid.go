package calendar

import (
	"time"

	"github.com/ilkka/allycal/internal/contract"
)

// gridCells is the fixed month grid size: six full Sunday-first weeks. The
// grid never reflows between months, so short and long months alike render
// with leading and trailing days from their neighbours.
const gridCells = 42

// Budgets bounds the compact per-cell display. These are the single source
// for both limits; callers feed them from configuration.
type Budgets struct {
	// CellItems is the maximum number of titles shown per cell before the
	// "+K more" summary takes over.
	CellItems int
	// CellChars is the maximum title length in runes before truncation.
	CellChars int
}

const (
	defaultCellItems = 3
	defaultCellChars = 18
)

func (b Budgets) withDefaults() Budgets {
	if b.CellItems <= 0 {
		b.CellItems = defaultCellItems
	}
	if b.CellChars <= 0 {
		b.CellChars = defaultCellChars
	}
	return b
}

// BuildGrid returns the 42-cell grid for a zero-based month index. Pure
// function of (year, month0); safe to call on every render.
func BuildGrid(year, month0 int) []contract.MonthCell {
	first := time.Date(year, time.Month(month0+1), 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	cells := make([]contract.MonthCell, 0, gridCells)
	for i := 0; i < gridCells; i++ {
		d := start.AddDate(0, 0, i)
		cells = append(cells, contract.MonthCell{
			Date:           d,
			DateKey:        FormatDateKey(d),
			InCurrentMonth: d.Month() == first.Month() && d.Year() == first.Year(),
		})
	}
	return cells
}

// AnnotateGrid fills in occurrence counts and compact title lists per cell.
// Occurrences are placed by EffectiveDateKey; skipped occurrences are left
// out of both counts and titles.
func AnnotateGrid(cells []contract.MonthCell, occs []contract.Occurrence, budgets Budgets) []contract.MonthCell {
	budgets = budgets.withDefaults()
	byDate := make(map[string][]contract.Occurrence)
	for _, occ := range occs {
		if occ.RenderHint == contract.HintSkipped {
			continue
		}
		byDate[occ.EffectiveDateKey] = append(byDate[occ.EffectiveDateKey], occ)
	}
	out := make([]contract.MonthCell, len(cells))
	for i, cell := range cells {
		day := byDate[cell.DateKey]
		sortOccurrences(day)
		cell.Count = len(day)
		cell.Titles = nil
		cell.More = 0
		limit := len(day)
		if limit > budgets.CellItems {
			limit = budgets.CellItems
			cell.More = len(day) - limit
		}
		for _, occ := range day[:limit] {
			cell.Titles = append(cell.Titles, truncateTitle(occ.Title, budgets.CellChars))
		}
		out[i] = cell
	}
	return out
}

func truncateTitle(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 1 {
		return "…"
	}
	return string(runes[:maxRunes-1]) + "…"
}
