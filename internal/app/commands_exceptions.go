package app

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ilkka/allycal/internal/contract"
	"github.com/ilkka/allycal/internal/store"
	"github.com/ilkka/allycal/internal/timeparse"
)

func newExceptionsCmd(opts *globalOptions) *cobra.Command {
	exceptions := &cobra.Command{Use: "exceptions", Short: "Per-occurrence overrides for recurring events"}

	var skipDryRun bool
	skip := &cobra.Command{
		Use:   "skip <event-id> <date>",
		Short: "Skip one occurrence",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, st, ro, err := buildContext(cmd, opts, "exceptions.skip")
			if err != nil {
				return err
			}
			defer st.Close()
			key, err := parseDayKey(args[1], ro)
			if err != nil {
				return failWithHint(p, contract.ErrInvalidUsage, err, "Use date as YYYY-MM-DD or relative day syntax", 2)
			}
			if _, err := st.GetEvent(context.Background(), args[0]); err != nil {
				return failWithHint(p, contract.ErrNotFound, err, "Check ID with `allycal events list`", 4)
			}
			row := contract.ExceptionRow{
				ID:             uuid.NewString(),
				EventID:        args[0],
				OccurrenceDate: key,
				Action:         contract.ActionSkip,
				UpdatedAt:      nowUTCString(),
			}
			if skipDryRun {
				return p.Success(row, map[string]any{"dry_run": true}, nil)
			}
			if err := st.AddException(context.Background(), row); err != nil {
				return failWithHint(p, contract.ErrStoreUnavailable, err, "Run `allycal doctor` for remediation", 6)
			}
			return p.Success(row, map[string]any{"count": 1}, nil)
		},
	}
	skip.Flags().BoolVarP(&skipDryRun, "dry-run", "n", false, "Preview without writing")

	var moveTo, moveStart, moveEnd, moveTitle, moveDesc string
	var moveDryRun bool
	move := &cobra.Command{
		Use:   "move <event-id> <date>",
		Short: "Move or override one occurrence",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, st, ro, err := buildContext(cmd, opts, "exceptions.move")
			if err != nil {
				return err
			}
			defer st.Close()
			key, err := parseDayKey(args[1], ro)
			if err != nil {
				return failWithHint(p, contract.ErrInvalidUsage, err, "Use date as YYYY-MM-DD or relative day syntax", 2)
			}
			row := contract.ExceptionRow{
				ID:             uuid.NewString(),
				EventID:        args[0],
				OccurrenceDate: key,
				Action:         contract.ActionOverride,
				NewStartTime:   moveStart,
				NewEndTime:     moveEnd,
				NewTitle:       moveTitle,
				NewDescription: moveDesc,
				UpdatedAt:      nowUTCString(),
			}
			if cmd.Flags().Changed("to") {
				newKey, perr := parseDayKey(moveTo, ro)
				if perr != nil {
					return failWithHint(p, contract.ErrInvalidUsage, perr, "Use --to as YYYY-MM-DD or relative day syntax", 2)
				}
				row.NewDate = newKey
			}
			if row.NewDate == "" && row.NewStartTime == "" && row.NewEndTime == "" && row.NewTitle == "" && row.NewDescription == "" {
				err = errors.New("nothing to override: provide --to, --start-time, --end-time, --title, or --desc")
				return failWithHint(p, contract.ErrInvalidUsage, err, "Provide at least one override field", 2)
			}
			if _, err := st.GetEvent(context.Background(), args[0]); err != nil {
				return failWithHint(p, contract.ErrNotFound, err, "Check ID with `allycal events list`", 4)
			}
			if moveDryRun {
				return p.Success(row, map[string]any{"dry_run": true}, nil)
			}
			if err := st.AddException(context.Background(), row); err != nil {
				return failWithHint(p, contract.ErrStoreUnavailable, err, "Run `allycal doctor` for remediation", 6)
			}
			return p.Success(row, map[string]any{"count": 1}, nil)
		},
	}
	move.Flags().StringVar(&moveTo, "to", "", "New date for the occurrence")
	move.Flags().StringVar(&moveStart, "start-time", "", "Override start clock (e.g. 20:30)")
	move.Flags().StringVar(&moveEnd, "end-time", "", "Override end clock")
	move.Flags().StringVar(&moveTitle, "title", "", "Override title")
	move.Flags().StringVar(&moveDesc, "desc", "", "Override description")
	move.Flags().BoolVarP(&moveDryRun, "dry-run", "n", false, "Preview without writing")

	var listEvent string
	list := &cobra.Command{
		Use:   "list",
		Short: "List exceptions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, st, ro, err := buildContext(cmd, opts, "exceptions.list")
			if err != nil {
				return err
			}
			defer st.Close()
			ids := []string{listEvent}
			if listEvent == "" {
				rows, lerr := st.ListEvents(context.Background(), store.Filter{AllianceID: ro.Alliance})
				if lerr != nil {
					return failWithHint(p, contract.ErrStoreUnavailable, lerr, "Run `allycal doctor` for remediation", 6)
				}
				ids = ids[:0]
				for _, r := range rows {
					ids = append(ids, r.ID)
				}
			}
			items, err := st.ListExceptions(context.Background(), ids)
			if err != nil {
				return failWithHint(p, contract.ErrStoreUnavailable, err, "Run `allycal doctor` for remediation", 6)
			}
			return p.Success(items, map[string]any{"count": len(items)}, nil)
		},
	}
	list.Flags().StringVar(&listEvent, "event", "", "Only exceptions for this event ID")

	var rmForce bool
	var rmConfirm string
	remove := &cobra.Command{
		Use:   "remove <exception-id>",
		Short: "Remove an exception",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, st, ro, err := buildContext(cmd, opts, "exceptions.remove")
			if err != nil {
				return err
			}
			defer st.Close()
			if !rmForce && rmConfirm != args[0] {
				if ro.NoInput || !stdinInteractive() {
					err = errors.New("non-interactive remove requires --force or --confirm <exception-id>")
					return failWithHint(p, contract.ErrInvalidUsage, err, "Add --confirm exactly matching the exception ID", 2)
				}
				ok, promptErr := promptConfirmID(os.Stdin, cmd.ErrOrStderr(), args[0])
				if promptErr != nil {
					return failWithHint(p, contract.ErrInvalidUsage, promptErr, "Use --force or --confirm <exception-id> in non-interactive mode", 2)
				}
				if !ok {
					err = errors.New("remove confirmation mismatch")
					return failWithHint(p, contract.ErrInvalidUsage, err, "Use --force, or retry and enter the exact exception ID", 2)
				}
			}
			if err := st.DeleteException(context.Background(), args[0]); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return failWithHint(p, contract.ErrNotFound, err, "Check ID with `allycal exceptions list`", 4)
				}
				return failWithHint(p, contract.ErrStoreUnavailable, err, "Run `allycal doctor` for remediation", 6)
			}
			return p.Success(map[string]any{"deleted": true, "id": args[0]}, map[string]any{"count": 1}, nil)
		},
	}
	remove.Flags().BoolVarP(&rmForce, "force", "f", false, "Force remove without confirmation")
	remove.Flags().StringVar(&rmConfirm, "confirm", "", "Confirm exact exception ID")

	exceptions.AddCommand(skip, move, list, remove)
	return exceptions
}

func parseDayKey(sel string, ro *globalOptions) (string, error) {
	loc := resolveLocation(ro.TZ)
	t, err := timeparse.ParseDateTime(sel, time.Now(), loc)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}
