package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ilkka/allycal/internal/contract"
	"github.com/ilkka/allycal/internal/output"
	"github.com/ilkka/allycal/internal/store"
	"github.com/ilkka/allycal/internal/timeparse"
)

func newEventsCmd(opts *globalOptions) *cobra.Command {
	events := &cobra.Command{Use: "events", Short: "Event resources"}

	var listVisibility, listUntil string
	var listLimit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, st, ro, err := buildContext(cmd, opts, "events.list")
			if err != nil {
				return err
			}
			defer st.Close()
			until := ""
			if strings.TrimSpace(listUntil) != "" {
				loc := resolveLocation(ro.TZ)
				t, perr := timeparse.ParseDateTime(listUntil, time.Now(), loc)
				if perr != nil {
					return failWithHint(p, contract.ErrInvalidUsage, perr, "Use --until as YYYY-MM-DD or relative day syntax", 2)
				}
				// Slack past the boundary so a UTC-stored start whose
				// local date still falls on the target day is included.
				until = t.AddDate(0, 0, 2).Format("2006-01-02")
			}
			rows, err := st.ListEvents(context.Background(), store.Filter{
				AllianceID: ro.Alliance,
				Visibility: listVisibility,
				Until:      until,
				Limit:      listLimit,
			})
			if err != nil {
				return failWithHint(p, contract.ErrStoreUnavailable, err, "Run `allycal doctor` for remediation", 6)
			}
			return p.Success(rows, map[string]any{"count": len(rows)}, nil)
		},
	}
	list.Flags().StringVar(&listVisibility, "visibility", "", "Filter by visibility")
	list.Flags().StringVar(&listUntil, "until", "", "Only events starting on or before this day")
	list.Flags().IntVar(&listLimit, "limit", 0, "Limit results")

	show := &cobra.Command{
		Use:   "show <event-id>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, st, _, err := buildContext(cmd, opts, "events.show")
			if err != nil {
				return err
			}
			defer st.Close()
			item, err := st.GetEvent(context.Background(), args[0])
			if err != nil {
				return failWithHint(p, contract.ErrNotFound, err, "Check ID with `allycal events list --fields id,title`", 4)
			}
			return p.Success(item, map[string]any{"count": 1}, nil)
		},
	}

	var wheres []string
	var sortField, order string
	var queryLimit int
	query := &cobra.Command{
		Use:   "query",
		Short: "Agent-focused deterministic query over stored events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, st, ro, err := buildContext(cmd, opts, "events.query")
			if err != nil {
				return err
			}
			defer st.Close()
			rows, err := st.ListEvents(context.Background(), store.Filter{AllianceID: ro.Alliance})
			if err != nil {
				return failWithHint(p, contract.ErrStoreUnavailable, err, "Run `allycal doctor` for remediation", 6)
			}
			preds, err := parsePredicates(wheres)
			if err != nil {
				return failWithHint(p, contract.ErrInvalidUsage, err, "Use clauses like title~\"raid\" or visibility==\"officer\"", 2)
			}
			rows, err = applyPredicates(rows, preds)
			if err != nil {
				return failWithHint(p, contract.ErrInvalidUsage, err, "Check --where field/operator/value", 2)
			}
			sortEventRows(rows, sortField, order)
			if queryLimit > 0 && len(rows) > queryLimit {
				rows = rows[:queryLimit]
			}
			return p.Success(rows, map[string]any{"count": len(rows)}, nil)
		},
	}
	// StringArrayVar, not StringSliceVar: clause values carry quotes and
	// commas that must reach the predicate parser untouched.
	query.Flags().StringArrayVar(&wheres, "where", nil, "Predicate clause (repeatable)")
	query.Flags().StringVar(&sortField, "sort", "start", "Sort field: start|end|title|updated_at|recurrence")
	query.Flags().StringVar(&order, "order", "asc", "Sort order: asc|desc")
	query.Flags().IntVar(&queryLimit, "limit", 0, "Limit results")

	var addTitle, addStart, addEnd, addDuration, addDesc, addRepeat, addVisibility, addAlliance string
	var addDryRun bool
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, st, ro, err := buildContext(cmd, opts, "events.add")
			if err != nil {
				return err
			}
			defer st.Close()
			if addTitle == "" || addStart == "" {
				err = errors.New("--title and --start are required")
				return failWithHint(p, contract.ErrInvalidUsage, err, "Provide required fields", 2)
			}
			loc := resolveLocation(ro.TZ)
			startT, err := timeparse.ParseDateTime(addStart, time.Now(), loc)
			if err != nil {
				return failWithHint(p, contract.ErrInvalidUsage, err, "Invalid --start format", 2)
			}
			endT, err := resolveEnd(addEnd, addDuration, startT, loc)
			if err != nil {
				return failWithHint(p, contract.ErrInvalidUsage, err, "Use --end or --duration", 2)
			}
			recType, daysCSV, err := parseRepeatSpec(addRepeat)
			if err != nil {
				return failWithHint(p, contract.ErrInvalidUsage, err, "Use --repeat none|daily|weekly:mon,wed|biweekly|monthly", 2)
			}
			alliance := firstNonEmpty(addAlliance, ro.Alliance)
			now := nowUTCString()
			row := contract.EventRow{
				ID:             uuid.NewString(),
				AllianceID:     alliance,
				Title:          addTitle,
				Description:    addDesc,
				StartTimeUTC:   startT.UTC().Format(time.RFC3339),
				RecurrenceType: recType,
				DaysOfWeek:     daysCSV,
				Visibility:     addVisibility,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if !endT.IsZero() {
				row.EndTimeUTC = endT.UTC().Format(time.RFC3339)
			}
			if addDryRun {
				return p.Success(row, map[string]any{"dry_run": true}, nil)
			}
			if err := st.AddEvent(context.Background(), row); err != nil {
				return failWithHint(p, contract.ErrStoreUnavailable, err, "Run `allycal doctor` for remediation", 6)
			}
			return p.Success(row, map[string]any{"count": 1}, nil)
		},
	}
	add.Flags().StringVar(&addTitle, "title", "", "Event title")
	add.Flags().StringVar(&addStart, "start", "", "Start datetime")
	add.Flags().StringVar(&addEnd, "end", "", "End datetime")
	add.Flags().StringVar(&addDuration, "duration", "", "Duration (e.g. 90m)")
	add.Flags().StringVar(&addDesc, "desc", "", "Description")
	add.Flags().StringVar(&addRepeat, "repeat", "none", "Repeat spec: none|daily|weekly[:days]|biweekly[:days]|monthly")
	add.Flags().StringVar(&addVisibility, "visibility", "", "Visibility tag")
	add.Flags().StringVar(&addAlliance, "alliance-id", "", "Alliance ID (defaults to --alliance)")
	add.Flags().BoolVarP(&addDryRun, "dry-run", "n", false, "Preview without writing")

	var upTitle, upStart, upEnd, upDuration, upDesc, upRepeat, upVisibility string
	var upDryRun bool
	update := &cobra.Command{
		Use:   "update <event-id>",
		Short: "Update an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, st, ro, err := buildContext(cmd, opts, "events.update")
			if err != nil {
				return err
			}
			defer st.Close()
			loc := resolveLocation(ro.TZ)
			var patch store.EventPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &upTitle
			}
			if cmd.Flags().Changed("desc") {
				patch.Description = &upDesc
			}
			if cmd.Flags().Changed("visibility") {
				patch.Visibility = &upVisibility
			}
			if cmd.Flags().Changed("repeat") {
				recType, daysCSV, perr := parseRepeatSpec(upRepeat)
				if perr != nil {
					return failWithHint(p, contract.ErrInvalidUsage, perr, "Use --repeat none|daily|weekly:mon,wed|biweekly|monthly", 2)
				}
				patch.RecurrenceType = &recType
				patch.DaysOfWeek = &daysCSV
			}
			base := time.Now()
			if cmd.Flags().Changed("start") {
				t, perr := timeparse.ParseDateTime(upStart, time.Now(), loc)
				if perr != nil {
					return failWithHint(p, contract.ErrInvalidUsage, perr, "Invalid --start", 2)
				}
				s := t.UTC().Format(time.RFC3339)
				patch.StartTimeUTC = &s
				base = t
			} else if cmd.Flags().Changed("end") || cmd.Flags().Changed("duration") {
				if current, gerr := st.GetEvent(context.Background(), args[0]); gerr == nil {
					if t, perr := time.Parse(time.RFC3339, current.StartTimeUTC); perr == nil {
						base = t
					}
				}
			}
			if cmd.Flags().Changed("end") || cmd.Flags().Changed("duration") {
				t, perr := resolveEnd(upEnd, upDuration, base, loc)
				if perr != nil {
					return failWithHint(p, contract.ErrInvalidUsage, perr, "Use --end or --duration", 2)
				}
				e := ""
				if !t.IsZero() {
					e = t.UTC().Format(time.RFC3339)
				}
				patch.EndTimeUTC = &e
			}
			if upDryRun {
				return p.Success(patch, map[string]any{"dry_run": true, "id": args[0]}, nil)
			}
			item, err := st.UpdateEvent(context.Background(), args[0], patch)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return failWithHint(p, contract.ErrNotFound, err, "Check ID with `allycal events list`", 4)
				}
				return failWithHint(p, contract.ErrStoreUnavailable, err, "Run `allycal doctor` for remediation", 6)
			}
			return p.Success(item, map[string]any{"count": 1}, nil)
		},
	}
	update.Flags().StringVar(&upTitle, "title", "", "Event title")
	update.Flags().StringVar(&upStart, "start", "", "Start datetime")
	update.Flags().StringVar(&upEnd, "end", "", "End datetime")
	update.Flags().StringVar(&upDuration, "duration", "", "Duration (e.g. 90m)")
	update.Flags().StringVar(&upDesc, "desc", "", "Description")
	update.Flags().StringVar(&upRepeat, "repeat", "", "Repeat spec: none|daily|weekly[:days]|biweekly[:days]|monthly")
	update.Flags().StringVar(&upVisibility, "visibility", "", "Visibility tag")
	update.Flags().BoolVarP(&upDryRun, "dry-run", "n", false, "Preview without writing")

	var delForce, delDryRun bool
	var delConfirm string
	deleteCmd := &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete an event and its exceptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, st, ro, err := buildContext(cmd, opts, "events.delete")
			if err != nil {
				return err
			}
			defer st.Close()
			if !delForce && delConfirm != args[0] {
				if ro.NoInput || !stdinInteractive() {
					err = errors.New("non-interactive delete requires --force or --confirm <event-id>")
					return failWithHint(p, contract.ErrInvalidUsage, err, "Add --confirm exactly matching the event ID", 2)
				}
				ok, promptErr := promptConfirmID(os.Stdin, cmd.ErrOrStderr(), args[0])
				if promptErr != nil {
					return failWithHint(p, contract.ErrInvalidUsage, promptErr, "Use --force or --confirm <event-id> in non-interactive mode", 2)
				}
				if !ok {
					err = errors.New("delete confirmation mismatch")
					return failWithHint(p, contract.ErrInvalidUsage, err, "Use --force, or retry and enter the exact event ID", 2)
				}
			}
			if delDryRun {
				item, getErr := st.GetEvent(context.Background(), args[0])
				if getErr != nil {
					item = &contract.EventRow{ID: args[0]}
				}
				return p.Success(item, map[string]any{"dry_run": true}, nil)
			}
			if err := st.DeleteEvent(context.Background(), args[0]); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return failWithHint(p, contract.ErrNotFound, err, "Check ID with `allycal events list`", 4)
				}
				return failWithHint(p, contract.ErrStoreUnavailable, err, "Run `allycal doctor` for remediation", 6)
			}
			return p.Success(map[string]any{"deleted": true, "id": args[0]}, map[string]any{"count": 1}, nil)
		},
	}
	deleteCmd.Flags().BoolVarP(&delForce, "force", "f", false, "Force delete without confirmation")
	deleteCmd.Flags().StringVar(&delConfirm, "confirm", "", "Confirm exact event ID")
	deleteCmd.Flags().BoolVarP(&delDryRun, "dry-run", "n", false, "Preview without writing")

	events.AddCommand(list, show, query, add, update, deleteCmd)
	return events
}

// resolveEnd resolves an optional end instant. Both inputs empty means the
// event is open-ended and the zero time is returned.
func resolveEnd(endS, durationS string, start time.Time, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(endS) != "" && strings.TrimSpace(durationS) != "" {
		return time.Time{}, fmt.Errorf("use either --end or --duration, not both")
	}
	if strings.TrimSpace(endS) != "" {
		end, err := timeparse.ParseDateTime(endS, time.Now(), loc)
		if err != nil {
			return time.Time{}, err
		}
		if end.Before(start) {
			return time.Time{}, fmt.Errorf("--end must not be before --start")
		}
		return end, nil
	}
	if strings.TrimSpace(durationS) != "" {
		d, err := time.ParseDuration(durationS)
		if err != nil {
			return time.Time{}, err
		}
		if d <= 0 {
			return time.Time{}, fmt.Errorf("--duration must be positive")
		}
		return start.Add(d), nil
	}
	return time.Time{}, nil
}

func failWithHint(printer output.Printer, code contract.ErrorCode, err error, hint string, exitCode int) error {
	if err == nil {
		err = errors.New("unknown error")
	}
	_ = printer.Error(code, err.Error(), hint)
	return Wrap(exitCode, err)
}
