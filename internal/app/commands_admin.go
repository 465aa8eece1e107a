package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ilkka/allycal/internal/contract"
	"github.com/ilkka/allycal/internal/output"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "allycal %s\n", BuildVersionString())
		},
	}
}

func newDoctorCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run store preflight checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, st, ro, err := buildContext(cmd, opts, "doctor")
			if err != nil {
				return err
			}
			defer st.Close()
			checks, derr := st.Doctor(context.Background())
			ready := derr == nil && checksReady(checks)
			meta := map[string]any{
				"count": len(checks),
				"ready": ready,
				"db":    ro.DB,
			}
			var warnings []string
			if derr != nil {
				warnings = append(warnings, derr.Error())
			}
			if p.EffectiveSuccessMode() == output.ModePlain {
				printDoctorPlain(cmd.OutOrStdout(), checks, ready)
			} else {
				_ = p.Success(checks, meta, warnings)
			}
			if !ready && derr != nil {
				return WrapPrinted(6, derr)
			}
			if !ready {
				return Wrap(6, fmt.Errorf("doctor checks not ready"))
			}
			return nil
		},
	}
}

func checksReady(checks []contract.DoctorCheck) bool {
	for _, c := range checks {
		status := strings.ToLower(strings.TrimSpace(c.Status))
		if status != "ok" && status != "pass" {
			return false
		}
	}
	return true
}

func printDoctorPlain(out io.Writer, checks []contract.DoctorCheck, ready bool) {
	_, _ = fmt.Fprintf(out, "ready=%t checks=%d\n", ready, len(checks))
	for _, c := range checks {
		_, _ = fmt.Fprintf(out, "[%s] %s: %s\n", c.Status, c.Name, c.Message)
	}
}

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion <bash|zsh|fish|powershell>",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := strings.ToLower(args[0])
			switch shell {
			case "bash":
				return root.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return root.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return root.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return root.GenPowerShellCompletion(cmd.OutOrStdout())
			default:
				return Wrap(2, fmt.Errorf("unsupported shell: %s", shell))
			}
		},
	}
}
