package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/tracker"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [identity...]",
		Short: "Reset failed recordings so the next poll retries them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *tracker.Store) error {
				count, err := store.RetryFailed(cmd.Context(), args...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch count {
				case 0:
					fmt.Fprintln(out, "No failed recordings to retry")
				case 1:
					fmt.Fprintln(out, "Reset 1 recording for retry")
				default:
					fmt.Fprintf(out, "Reset %d recordings for retry\n", count)
				}
				return nil
			})
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove completed recordings from the tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *tracker.Store) error {
				count, err := store.ClearCompleted(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed records\n", count)
				return nil
			})
		},
	}
}
