// Package cli is the visa-admin command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/SundayYogurt/visa_admin/config"
	"github.com/spf13/cobra"
)

func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{out: out, in: newLineReader(in)}
	var apiURL string

	root := &cobra.Command{
		Use:           "visa-admin",
		Short:         "Review visa applications from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.APIBaseURL = apiURL
			}
			return a.init(cfg)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&apiURL, "api", "", "admin API base URL (overrides VISA_API_BASE_URL)")
	root.PersistentFlags().BoolVar(&a.noBrowser, "no-browser", false, "print preview URLs instead of opening them")

	root.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newApplicationsCommand(a),
		newDocumentsCommand(a),
		newPDFCommand(a),
		newFeedbacksCommand(a),
		newConsoleCommand(a),
		newDevserverCommand(a),
		newWatchCommand(a),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand(os.Stdin, os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	return 0
}

// addDecisionFlags wires --yes and --reason for non-interactive use.
func addDecisionFlags(cmd *cobra.Command, a *app, withReason bool) {
	cmd.Flags().BoolVarP(&a.assumeYes, "yes", "y", false, "skip the confirmation prompt")
	if !withReason {
		return
	}
	var reason string
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason; an empty value submits no reason")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("reason") {
			a.reason = &reason
		}
		return nil
	}
}

func parseID(s, what string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return uint(v), nil
}
