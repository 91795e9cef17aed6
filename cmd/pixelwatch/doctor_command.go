package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pixelwatch/internal/check"
	"pixelwatch/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the driver, directories, baseline, and target endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, check.DefaultEndpoint)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, r := range results {
				fmt.Fprintln(out, renderStatusLine(r.Name, r.Passed, r.Advisory, r.Detail, colorize))
			}
			if blocking := preflight.Blocking(results); len(blocking) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(blocking))
			}
			fmt.Fprintln(out, "Ready to run")
			return nil
		},
	}
}
