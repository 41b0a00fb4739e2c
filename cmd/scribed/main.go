package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"scribe/internal/config"
	"scribe/internal/daemon"
	"scribe/internal/deps"
	"scribe/internal/discovery"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/tracker"
	"scribe/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := tracker.Open(cfg)
	if err != nil {
		log.Fatalf("open tracker store: %v", err)
	}

	stages, err := pipeline.DefaultStages(cfg)
	if err != nil {
		log.Fatalf("build pipeline stages: %v", err)
	}
	orch, err := pipeline.New(cfg, store, nil, logger, stages)
	if err != nil {
		log.Fatalf("build orchestrator: %v", err)
	}

	source := discovery.NewFolderSource(cfg, logger)
	manager := workflow.NewManager(cfg, store, source, orch, logger)

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		log.Fatalf("create daemon: %v", err)
	}
	defer d.Close()

	for _, dep := range deps.CheckBinaries(deps.Requirements(cfg)) {
		if !dep.Available {
			logger.Warn("external dependency unavailable",
				logging.String("dependency", dep.Name),
				logging.String("detail", dep.Detail),
			)
		}
	}
	for _, check := range orch.Health(ctx) {
		if !check.Ready {
			logger.Warn("stage not ready",
				logging.String("stage", check.Name),
				logging.String("detail", check.Detail),
			)
		}
	}

	if err := d.Start(ctx); err != nil {
		log.Fatalf("start daemon: %v", err)
	}

	<-ctx.Done()
	logger.Info("scribed shutting down")
	d.Stop()
}
