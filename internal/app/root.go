package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ilkka/allycal/internal/calendar"
	"github.com/ilkka/allycal/internal/contract"
	"github.com/ilkka/allycal/internal/output"
	"github.com/ilkka/allycal/internal/store"
)

var storeFactory = func(path string) (store.Store, error) {
	return store.OpenSQLite(path)
}

type globalOptions struct {
	JSON          bool
	JSONL         bool
	Plain         bool
	Fields        string
	Quiet         bool
	Verbose       bool
	NoInput       bool
	Profile       string
	Config        string
	DB            string
	Alliance      string
	TZ            string
	DateKeys      string
	TimeFormat    string
	CellTitles    int
	CellChars     int
	SchemaVersion string
}

func Execute() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if err != nil {
		renderTopLevelError(cmd, err)
	}
	return ExitCode(err)
}

func NewRootCommand() *cobra.Command {
	opts := &globalOptions{
		Profile:       "default",
		DateKeys:      "local",
		TimeFormat:    "%H:%M",
		CellTitles:    3,
		CellChars:     18,
		SchemaVersion: contract.SchemaVersion,
	}

	root := &cobra.Command{
		Use:           "allycal",
		Short:         "Shared alliance event calendar for terminal workflows and agents",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       BuildVersionString(),
	}
	root.SetVersionTemplate("allycal {{.Version}}\n")

	root.PersistentFlags().BoolVar(&opts.JSON, "json", false, "Output structured JSON")
	root.PersistentFlags().BoolVar(&opts.JSONL, "jsonl", false, "Output newline-delimited JSON")
	root.PersistentFlags().BoolVar(&opts.Plain, "plain", false, "Output stable plain text")
	root.PersistentFlags().StringVar(&opts.Fields, "fields", "", "Projected fields, comma-separated")
	root.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Reduce success output")
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose diagnostics")
	root.PersistentFlags().BoolVar(&opts.NoInput, "no-input", false, "Disable prompts")
	root.PersistentFlags().StringVar(&opts.Profile, "profile", "default", "Config profile")
	root.PersistentFlags().StringVar(&opts.Config, "config", "", "Config file path")
	root.PersistentFlags().StringVar(&opts.DB, "db", "", "SQLite database path")
	root.PersistentFlags().StringVar(&opts.Alliance, "alliance", "", "Alliance ID scope")
	root.PersistentFlags().StringVar(&opts.TZ, "tz", "", "IANA timezone for date keys and clocks")
	root.PersistentFlags().StringVar(&opts.DateKeys, "date-keys", "local", "Date key derivation: local|utc")
	root.PersistentFlags().StringVar(&opts.TimeFormat, "time-format", "%H:%M", "strftime pattern for occurrence clocks")
	root.PersistentFlags().IntVar(&opts.CellTitles, "cell-titles", 3, "Max titles rendered per month cell")
	root.PersistentFlags().IntVar(&opts.CellChars, "cell-chars", 18, "Max runes per rendered title")
	root.PersistentFlags().StringVar(&opts.SchemaVersion, "schema-version", contract.SchemaVersion, "Output schema version")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newDoctorCmd(opts))
	root.AddCommand(newEventsCmd(opts))
	root.AddCommand(newExceptionsCmd(opts))
	root.AddCommand(newMonthCmd(opts))
	root.AddCommand(newAgendaCmd(opts))
	root.AddCommand(newWeekCmd(opts))
	root.AddCommand(newUpcomingCmd(opts))
	root.AddCommand(newCompletionCmd(root))

	return root
}

func buildContext(cmd *cobra.Command, opts *globalOptions, command string) (output.Printer, store.Store, *globalOptions, error) {
	resolved, err := resolveGlobalOptions(cmd, opts)
	if err != nil {
		return output.Printer{}, nil, nil, Wrap(2, err)
	}
	if conflictCount(resolved.JSON, resolved.JSONL, resolved.Plain) > 1 {
		return output.Printer{}, nil, nil, Wrap(2, errors.New("--json, --jsonl, and --plain are mutually exclusive"))
	}
	mode := output.ModeAuto
	if resolved.JSON {
		mode = output.ModeJSON
	} else if resolved.JSONL {
		mode = output.ModeJSONL
	} else if resolved.Plain {
		mode = output.ModePlain
	}

	printer := output.Printer{
		Mode:          mode,
		Command:       command,
		Fields:        splitCSV(resolved.Fields),
		Quiet:         resolved.Quiet,
		SchemaVersion: resolved.SchemaVersion,
		Out:           cmd.OutOrStdout(),
		Err:           cmd.ErrOrStderr(),
	}

	if _, err := calendar.ParseDateKeyMode(resolved.DateKeys); err != nil {
		_ = printer.Error(contract.ErrInvalidUsage, err.Error(), "Use --date-keys local|utc")
		return printer, nil, nil, WrapPrinted(2, err)
	}
	st, err := storeFactory(resolved.DB)
	if err != nil {
		_ = printer.Error(contract.ErrStoreUnavailable, err.Error(), "Check --db path and permissions, or run `allycal doctor`")
		return printer, nil, nil, WrapPrinted(6, err)
	}
	if resolved.Verbose {
		_, _ = fmt.Fprintf(printer.Err, "allycal: command=%s db=%s mode=%s tz=%s date_keys=%s profile=%s\n", command, resolved.DB, mode, resolved.TZ, resolved.DateKeys, resolved.Profile)
	}
	return printer, st, resolved, nil
}

func engineOptions(ro *globalOptions) calendar.Options {
	mode, err := calendar.ParseDateKeyMode(ro.DateKeys)
	if err != nil {
		mode = calendar.DateKeysLocal
	}
	return calendar.Options{
		Location:   resolveLocation(ro.TZ),
		DateKeys:   mode,
		TimeFormat: ro.TimeFormat,
	}
}

func cellBudgets(ro *globalOptions) calendar.Budgets {
	return calendar.Budgets{CellItems: ro.CellTitles, CellChars: ro.CellChars}
}

// loadOccurrences runs the whole read pipeline for a date-key window:
// list rows, normalize, fetch exceptions, expand and resolve. Row-level
// problems surface as warnings, never as errors.
func loadOccurrences(ctx context.Context, st store.Store, ro *globalOptions, windowStart, windowEnd string) ([]contract.Occurrence, []string, error) {
	rows, err := st.ListEvents(ctx, store.Filter{
		AllianceID: ro.Alliance,
		Until:      untilSlack(windowEnd),
	})
	if err != nil {
		return nil, nil, err
	}
	opts := engineOptions(ro)
	events := calendar.Normalize(rows, opts)
	var warnings []string
	if dropped := calendar.NormalizeDropped(rows, opts); dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("dropped %d malformed event row(s)", dropped))
	}
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	exceptions, err := st.ListExceptions(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	occs, conflicts := calendar.Project(events, exceptions, windowStart, windowEnd)
	for _, c := range conflicts {
		warnings = append(warnings, fmt.Sprintf("duplicate exception for event %s on %s: kept %s, dropped %s", c.EventID, c.DateKey, c.KeptID, c.DroppedID))
	}
	return occs, warnings, nil
}

// untilSlack pushes the store's upper start-time bound past the window end
// so a UTC-stored start whose local date key still lands inside the window
// is not filtered out.
func untilSlack(windowEnd string) string {
	t, err := calendar.ParseDateKey(windowEnd)
	if err != nil {
		return ""
	}
	return calendar.FormatDateKey(t.AddDate(0, 0, 2))
}

// shiftKey returns the date key a given number of days away. Invalid keys
// come back unchanged.
func shiftKey(key string, days int) string {
	t, err := calendar.ParseDateKey(key)
	if err != nil {
		return key
	}
	return calendar.FormatDateKey(t.AddDate(0, 0, days))
}

func renderTopLevelError(cmd *cobra.Command, err error) {
	var appErr AppError
	if errors.As(err, &appErr) && appErr.Printed {
		return
	}
	if wantsStructuredErrorOutput(os.Args[1:]) {
		printer := output.Printer{
			Mode:          output.ModeJSON,
			SchemaVersion: contract.SchemaVersion,
			Err:           cmd.ErrOrStderr(),
		}
		_ = printer.Error(errorCodeForExit(ExitCode(err)), err.Error(), "")
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", err.Error())
}

func wantsStructuredErrorOutput(args []string) bool {
	for _, arg := range args {
		switch {
		case arg == "--":
			return false
		case arg == "--json", arg == "--jsonl":
			return true
		case strings.HasPrefix(arg, "--json="), strings.HasPrefix(arg, "--jsonl="):
			return true
		}
	}
	return false
}

func errorCodeForExit(code int) contract.ErrorCode {
	switch code {
	case 2:
		return contract.ErrInvalidUsage
	case 4:
		return contract.ErrNotFound
	case 6:
		return contract.ErrStoreUnavailable
	default:
		return contract.ErrGeneric
	}
}

func resolveLocation(tz string) *time.Location {
	if strings.TrimSpace(tz) != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.Local
}

func nowUTCString() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func stdinInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func promptConfirmID(in io.Reader, out io.Writer, expected string) (bool, error) {
	if _, err := fmt.Fprintf(out, "Type ID to confirm delete: "); err != nil {
		return false, err
	}
	var entered string
	if _, err := fmt.Fscanln(in, &entered); err != nil {
		return false, err
	}
	return strings.TrimSpace(entered) == strings.TrimSpace(expected), nil
}

func conflictCount(vals ...bool) int {
	total := 0
	for _, v := range vals {
		if v {
			total++
		}
	}
	return total
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
