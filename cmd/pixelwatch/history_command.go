package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pixelwatch/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), ctx, func(store *history.Store) error {
				batches, err := store.ListBatches(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, batches)
				}
				out := cmd.OutOrStdout()
				if len(batches) == 0 {
					fmt.Fprintln(out, "No batches recorded")
					return nil
				}
				rows := make([][]string, 0, len(batches))
				for _, b := range batches {
					rows = append(rows, []string{
						b.ID,
						formatTimestamp(b.StartedAt),
						b.FinishedAt.Sub(b.StartedAt).Round(time.Millisecond).String(),
						strconv.Itoa(b.Total),
						strconv.Itoa(b.Succeeded),
						strconv.Itoa(b.Failed),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Batch", "Started", "Duration", "Total", "Passed", "Failed"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of batches to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <batch-id>",
		Short: "Show the outcomes of one batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), ctx, func(store *history.Store) error {
				batch, err := store.GetBatch(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				outcomes, err := store.Outcomes(cmd.Context(), batch.ID)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, struct {
						Batch    history.Batch     `json:"batch"`
						Outcomes []history.Outcome `json:"outcomes"`
					}{batch, outcomes})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Batch %s against %s\n", batch.ID, batch.Endpoint)
				fmt.Fprintf(out, "Started %s, %d/%d passed\n", formatTimestamp(batch.StartedAt), batch.Succeeded, batch.Total)
				rows := make([][]string, 0, len(outcomes))
				for _, o := range outcomes {
					rows = append(rows, []string{
						strconv.Itoa(o.Order + 1),
						strconv.Itoa(o.TaskIndex),
						o.Kind,
						strconv.Itoa(o.Attempts),
						o.Duration.String(),
						o.Error,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Task", "Kind", "Attempts", "Duration", "Error"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func withStore(cmdCtx context.Context, ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cmdCtx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
