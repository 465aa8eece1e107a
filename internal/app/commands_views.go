package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ilkka/allycal/internal/calendar"
	"github.com/ilkka/allycal/internal/contract"
	"github.com/ilkka/allycal/internal/timeparse"
)

// Moved occurrences can land in a window whose base dates lie outside it,
// and vice versa. Day and week views expand the store window by this many
// days on both sides before resolving.
const moveSlackDays = 35

func newMonthCmd(opts *globalOptions) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Render the month grid with event titles per cell",
		RunE: func(c *cobra.Command, _ []string) error {
			p, st, ro, err := buildContext(c, opts, "month")
			if err != nil {
				return err
			}
			defer st.Close()
			loc := resolveLocation(ro.TZ)
			anchor, err := timeparse.ParseMonth(month, time.Now(), loc)
			if err != nil {
				_ = p.Error(contract.ErrInvalidUsage, err.Error(), "Use --month as YYYY-MM, YYYY-MM-DD, today, or +Nd")
				return Wrap(2, err)
			}
			cells := calendar.BuildGrid(anchor.Year(), int(anchor.Month())-1)
			from := cells[0].DateKey
			to := cells[len(cells)-1].DateKey
			occs, warnings, err := loadOccurrences(context.Background(), st, ro, shiftKey(from, -moveSlackDays), shiftKey(to, moveSlackDays))
			if err != nil {
				_ = p.Error(contract.ErrStoreUnavailable, err.Error(), "Run `allycal doctor` for remediation")
				return WrapPrinted(6, err)
			}
			cells = calendar.AnnotateGrid(cells, occs, cellBudgets(ro))
			meta := map[string]any{
				"count": len(occs),
				"view":  "month",
				"month": anchor.Format("2006-01"),
				"from":  from,
				"to":    to,
			}
			return p.Success(cells, meta, warnings)
		},
	}
	cmd.Flags().StringVar(&month, "month", "today", "Month selector: YYYY-MM, YYYY-MM-DD, today, +Nd")
	return cmd
}

func newAgendaCmd(opts *globalOptions) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Day agenda with skipped and moved-away markers",
		RunE: func(c *cobra.Command, _ []string) error {
			p, st, ro, err := buildContext(c, opts, "agenda")
			if err != nil {
				return err
			}
			defer st.Close()
			loc := resolveLocation(ro.TZ)
			anchor, err := timeparse.ParseDateTime(day, time.Now(), loc)
			if err != nil {
				_ = p.Error(contract.ErrInvalidUsage, err.Error(), "Use --day as today, tomorrow, +Nd, or YYYY-MM-DD")
				return Wrap(2, err)
			}
			key := anchor.Format("2006-01-02")
			occs, warnings, err := loadOccurrences(context.Background(), st, ro, shiftKey(key, -moveSlackDays), shiftKey(key, moveSlackDays))
			if err != nil {
				_ = p.Error(contract.ErrStoreUnavailable, err.Error(), "Run `allycal doctor` for remediation")
				return WrapPrinted(6, err)
			}
			agenda := calendar.ForDay(occs, key)
			meta := map[string]any{
				"count":   len(agenda.Events),
				"markers": len(agenda.Markers),
				"view":    "day",
				"day":     key,
			}
			return p.Success(agenda, meta, warnings)
		},
	}
	cmd.Flags().StringVar(&day, "day", "today", "Day selector")
	return cmd
}

func newWeekCmd(opts *globalOptions) *cobra.Command {
	var of string
	var weekStart string
	var summary bool
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Day agendas for a week",
		RunE: func(c *cobra.Command, _ []string) error {
			p, st, ro, err := buildContext(c, opts, "week")
			if err != nil {
				return err
			}
			defer st.Close()
			loc := resolveLocation(ro.TZ)
			anchor, err := timeparse.ParseDateTime(of, time.Now(), loc)
			if err != nil {
				_ = p.Error(contract.ErrInvalidUsage, err.Error(), "Use --of as today, tomorrow, +Nd, or YYYY-MM-DD")
				return Wrap(2, err)
			}
			ws, err := parseWeekStart(weekStart)
			if err != nil {
				_ = p.Error(contract.ErrInvalidUsage, err.Error(), "Use --week-start monday|sunday")
				return Wrap(2, err)
			}
			delta := (int(anchor.Weekday()) - int(ws) + 7) % 7
			firstKey := anchor.AddDate(0, 0, -delta).Format("2006-01-02")
			lastKey := shiftKey(firstKey, 6)
			occs, warnings, err := loadOccurrences(context.Background(), st, ro, shiftKey(firstKey, -moveSlackDays), shiftKey(lastKey, moveSlackDays))
			if err != nil {
				_ = p.Error(contract.ErrStoreUnavailable, err.Error(), "Run `allycal doctor` for remediation")
				return WrapPrinted(6, err)
			}
			days := make([]contract.DayAgenda, 0, 7)
			for i := 0; i < 7; i++ {
				days = append(days, calendar.ForDay(occs, shiftKey(firstKey, i)))
			}
			meta := map[string]any{
				"count":      len(days),
				"view":       "week",
				"from":       firstKey,
				"to":         lastKey,
				"week_start": ws.String(),
			}
			if summary {
				rows := summarizeAgendaDays(days)
				meta["summary"] = true
				return p.Success(rows, meta, warnings)
			}
			return p.Success(days, meta, warnings)
		},
	}
	cmd.Flags().StringVar(&of, "of", "today", "Date selector within target week")
	cmd.Flags().StringVar(&weekStart, "week-start", "sunday", "Week start day: monday|sunday")
	cmd.Flags().BoolVar(&summary, "summary", false, "Per-day counts instead of full agendas")
	return cmd
}

type upcomingItem struct {
	contract.Occurrence
	In string `json:"in"`
}

func newUpcomingCmd(opts *globalOptions) *cobra.Command {
	var from string
	var days, limit int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Next occurrences in chronological order",
		RunE: func(c *cobra.Command, _ []string) error {
			p, st, ro, err := buildContext(c, opts, "upcoming")
			if err != nil {
				return err
			}
			defer st.Close()
			if days <= 0 {
				err = fmt.Errorf("--days must be positive")
				_ = p.Error(contract.ErrInvalidUsage, err.Error(), "Use --days with a positive day count")
				return WrapPrinted(2, err)
			}
			loc := resolveLocation(ro.TZ)
			anchor, err := timeparse.ParseDateTime(from, time.Now(), loc)
			if err != nil {
				_ = p.Error(contract.ErrInvalidUsage, err.Error(), "Use --from as today, tomorrow, +Nd, or YYYY-MM-DD")
				return Wrap(2, err)
			}
			fromKey := anchor.Format("2006-01-02")
			toKey := shiftKey(fromKey, days-1)
			occs, warnings, err := loadOccurrences(context.Background(), st, ro, shiftKey(fromKey, -moveSlackDays), shiftKey(toKey, moveSlackDays))
			if err != nil {
				_ = p.Error(contract.ErrStoreUnavailable, err.Error(), "Run `allycal doctor` for remediation")
				return WrapPrinted(6, err)
			}
			// Range membership is decided by where the occurrence lands,
			// not where it started out.
			items := make([]upcomingItem, 0, len(occs))
			for _, o := range occs {
				if o.RenderHint == contract.HintSkipped {
					continue
				}
				if o.EffectiveDateKey < fromKey || o.EffectiveDateKey > toKey {
					continue
				}
				items = append(items, upcomingItem{Occurrence: o, In: relativeDay(o.EffectiveDateKey, loc)})
			}
			sort.SliceStable(items, func(i, j int) bool {
				if items[i].EffectiveDateKey != items[j].EffectiveDateKey {
					return items[i].EffectiveDateKey < items[j].EffectiveDateKey
				}
				if items[i].StartTime != items[j].StartTime {
					if items[i].StartTime == "" {
						return false
					}
					if items[j].StartTime == "" {
						return true
					}
					return items[i].StartTime < items[j].StartTime
				}
				return items[i].Title < items[j].Title
			})
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}
			meta := map[string]any{"count": len(items), "from": fromKey, "to": toKey}
			return p.Success(items, meta, warnings)
		},
	}
	cmd.Flags().StringVar(&from, "from", "today", "Range start selector")
	cmd.Flags().IntVar(&days, "days", 14, "Days ahead to include")
	cmd.Flags().IntVar(&limit, "limit", 0, "Limit results")
	return cmd
}

func relativeDay(dateKey string, loc *time.Location) string {
	t, err := time.ParseInLocation("2006-01-02", dateKey, loc)
	if err != nil {
		return ""
	}
	return humanize.Time(t)
}

func parseWeekStart(v string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "monday", "mon":
		return time.Monday, nil
	case "sunday", "sun":
		return time.Sunday, nil
	default:
		return time.Sunday, fmt.Errorf("invalid --week-start: %s", v)
	}
}
