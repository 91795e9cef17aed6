package main

import (
	"fmt"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"pixelwatch/internal/batchrun"
	"pixelwatch/internal/check"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one batch of concurrent session checks",
		Long: "Launch one WebDriver process per session, verify each browser lands on the target " +
			"endpoint, capture a screenshot, and compare it against the configured baseline. " +
			"Failed sessions are reported but do not change the exit status.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := batchrun.SetupLogger(cfg, ctx.logLevel(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, runErr := batchrun.Run(signalCtx, cfg, logger, batchrun.Options{})
			if result != nil {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, outcome := range result.Outcomes {
					fmt.Fprintln(out, renderOutcome(outcome, colorize))
				}
				fmt.Fprintf(out, "%d/%d sessions passed (batch %s)\n",
					result.Tally.Succeeded, result.Tally.Total, result.BatchID)
				for _, kind := range failedKinds(result.Tally) {
					fmt.Fprintf(out, "  %s: %d\n", kind.Label(), result.Tally.ByKind[kind])
				}
			}
			return runErr
		},
	}
}

func failedKinds(tally check.Tally) []check.Kind {
	kinds := make([]check.Kind, 0, len(tally.ByKind))
	for kind := range tally.ByKind {
		if kind.Failed() {
			kinds = append(kinds, kind)
		}
	}
	slices.Sort(kinds)
	return kinds
}
