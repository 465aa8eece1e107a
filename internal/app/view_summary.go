package app

import "github.com/ilkka/allycal/internal/contract"

type daySummary struct {
	Date    string `json:"date"`
	Total   int    `json:"total"`
	Timed   int    `json:"timed"`
	AllDay  int    `json:"all_day"`
	Skipped int    `json:"skipped"`
	Moved   int    `json:"moved"`
}

// summarizeAgendaDays collapses full day agendas into per-day counts.
// Skipped and Moved count marker rows; everything else counts agenda events.
func summarizeAgendaDays(days []contract.DayAgenda) []daySummary {
	rows := make([]daySummary, 0, len(days))
	for _, day := range days {
		row := daySummary{Date: day.Date}
		for _, e := range day.Events {
			row.Total++
			if e.StartTime == "" {
				row.AllDay++
			} else {
				row.Timed++
			}
		}
		for _, m := range day.Markers {
			switch m.RenderHint {
			case contract.HintSkipped:
				row.Skipped++
			case contract.HintMoved:
				row.Moved++
			}
		}
		rows = append(rows, row)
	}
	return rows
}
