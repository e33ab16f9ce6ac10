// Package main runs the dashboard server: the JSON API under /api, the live
// session on /ws and Prometheus metrics on /metrics.
package main

import (
	"log/slog"
	"os"

	"dtindex/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
