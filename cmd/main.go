package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caelexhq/caelex-backend/internal/app"
	"github.com/caelexhq/caelex-backend/internal/observability"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()
	log := application.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "caelex-backend",
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

	application.Start()

	addr := ":" + application.Cfg.Port
	log.Info("Starting HTTP server", "addr", addr)
	if err := application.Run(ctx, addr); err != nil {
		log.Error("HTTP server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
