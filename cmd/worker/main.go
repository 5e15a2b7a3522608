package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caelexhq/caelex-backend/internal/app"
	"github.com/caelexhq/caelex-backend/internal/observability"
	"github.com/caelexhq/caelex-backend/internal/temporalx/temporalworker"
)

// The worker binary runs the Temporal task queue consumer. It shares the
// app wiring with the API binary but never serves HTTP; job handlers are
// executed here when Temporal dispatch is configured.
func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()
	log := application.Log

	if application.Clients.Temporal == nil {
		log.Fatal("TEMPORAL_ADDRESS is not configured; the worker binary requires Temporal")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "caelex-worker",
		Environment: os.Getenv("DEPLOY_ENV"),
		Version:     os.Getenv("RELEASE_VERSION"),
	})
	if otelShutdown != nil {
		defer func() {
			if err := otelShutdown(context.Background()); err != nil {
				log.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	runner, err := temporalworker.NewRunner(
		log,
		application.Clients.Temporal,
		application.DB,
		application.Repos.JobRun,
		application.Services.JobRegistry,
		application.Services.JobNotifier,
	)
	if err != nil {
		log.Fatal("Failed to build temporal worker", "error", err)
	}

	log.Info("Starting temporal worker", "task_queue", application.Cfg.Temporal.TaskQueue)
	if err := runner.Start(ctx); err != nil {
		log.Error("Temporal worker exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Worker stopped")
}
