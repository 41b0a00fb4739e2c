package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/deps"
	"scribe/internal/pipeline"
	"scribe/internal/tracker"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tracked recordings and pipeline readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *tracker.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				var statuses []tracker.Status
				if trimmed := strings.TrimSpace(statusFilter); trimmed != "" {
					parsed, ok := tracker.ParseStatus(trimmed)
					if !ok {
						return fmt.Errorf("unknown status %q", trimmed)
					}
					statuses = append(statuses, parsed)
				}

				records, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				summary, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}

				for _, line := range renderSectionHeader("Recordings", colorize) {
					fmt.Fprintln(out, line)
				}
				if len(records) == 0 {
					fmt.Fprintln(out, "  no tracked recordings")
				} else {
					fmt.Fprintln(out, renderRecordsTable(records))
				}
				fmt.Fprintf(out, "\n%d total: %d pending, %d in progress, %d completed, %d failed\n\n",
					summary.Total, summary.Pending, summary.InProgress, summary.Completed, summary.Failed)

				stages, err := pipeline.DefaultStages(cfg)
				if err != nil {
					return err
				}
				orch, err := pipeline.New(cfg, store, nil, nil, stages)
				if err != nil {
					return err
				}
				for _, line := range renderSectionHeader("Stage readiness", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, check := range orch.Health(cmd.Context()) {
					kind := statusOK
					message := ""
					if !check.Ready {
						kind = statusError
						message = check.Detail
					}
					fmt.Fprintln(out, renderStatusLine(check.Name, kind, message, colorize))
				}

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Dependencies", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, dep := range deps.CheckBinaries(deps.Requirements(cfg)) {
					kind := statusOK
					message := dep.Command
					if !dep.Available {
						kind = statusError
						message = dep.Detail
					}
					fmt.Fprintln(out, renderStatusLine(dep.Name, kind, message, colorize))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show records with this status (pending, in_progress, completed, failed)")
	return cmd
}

func renderRecordsTable(records []*tracker.Record) string {
	headers := []string{"Identity", "Name", "Status", "Attempts", "Stages", "Updated"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			shortIdentity(record.Identity),
			record.DisplayName,
			string(record.Status),
			strconv.Itoa(record.AttemptCount),
			strconv.Itoa(len(record.StageCompletions)),
			record.UpdatedAt.Local().Format(time.DateTime),
		})
	}
	return renderTable(headers, rows, 3, 4)
}

func shortIdentity(identity string) string {
	// Hash identities are 64 hex chars; keep tables readable.
	if len(identity) > 16 && !strings.ContainsAny(identity, ". ") {
		return identity[:16]
	}
	return identity
}
