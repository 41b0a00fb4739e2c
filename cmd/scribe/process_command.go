package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/discovery"
	"scribe/internal/identity"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/stage"
	"scribe/internal/tracker"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var displayName string

	cmd := &cobra.Command{
		Use:   "process <recording>",
		Short: "Run one recording through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *tracker.Store) error {
				source, err := resolveRecording(args[0])
				if err != nil {
					return err
				}
				if dryRun {
					cfg.Workflow.DryRun = true
				}

				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}

				stages, err := pipeline.DefaultStages(cfg)
				if err != nil {
					return err
				}
				orch, err := pipeline.New(cfg, store, nil, logger, stages)
				if err != nil {
					return err
				}

				name := strings.TrimSpace(displayName)
				if name == "" {
					name = identity.NormalizeDisplayName(filepath.Base(source))
				}
				result, err := orch.Process(cmd.Context(), discovery.Candidate{
					ExternalID:  filepath.Base(source),
					DisplayName: name,
					ContentRef:  source,
				})
				if err != nil {
					return err
				}
				return reportRunResult(cmd, result)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the processing plan without claiming or running stages")
	cmd.Flags().StringVar(&displayName, "display-name", "", "Override the derived display name")
	return cmd
}

func resolveRecording(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("recording path is required")
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed, nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve recording path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat recording: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("recording path %q is a directory", abs)
	}
	return abs, nil
}

func reportRunResult(cmd *cobra.Command, result pipeline.RunResult) error {
	out := cmd.OutOrStdout()
	switch result.Outcome {
	case pipeline.OutcomeDryRun:
		fmt.Fprintf(out, "Dry run: would process %s as %s\n", result.Identity, result.DisplayName)
		return nil
	case pipeline.OutcomeAlreadyClaimed:
		switch result.Reason {
		case tracker.ReasonAlreadyCompleted:
			fmt.Fprintf(out, "Recording %s is already processed\n", result.Identity)
		default:
			fmt.Fprintf(out, "Recording %s is being processed elsewhere\n", result.Identity)
		}
		return nil
	case pipeline.OutcomeCompleted:
		for _, stageResult := range result.Stages {
			marker := "ran"
			if stageResult.Outcome == stage.OutcomeSkipped {
				marker = "skipped"
			}
			fmt.Fprintf(out, "  %-16s %s\n", stageResult.Stage, marker)
		}
		bundle := ""
		if n := len(result.Stages); n > 0 {
			bundle = result.Stages[n-1].OutputRef
		}
		fmt.Fprintf(out, "Completed %s (%s)\n", result.DisplayName, bundle)
		return nil
	default:
		failedStage := ""
		for _, stageResult := range result.Stages {
			if stageResult.Outcome == stage.OutcomeFailed {
				failedStage = stageResult.Stage
			}
		}
		if failedStage != "" {
			return fmt.Errorf("stage %s failed: %w", failedStage, result.Err)
		}
		return fmt.Errorf("processing failed: %w", result.Err)
	}
}
