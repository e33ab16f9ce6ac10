// Package app wires the dashboard server together and manages its lifecycle.
//
// # Initialization Flow
//
// New builds every component from an already loaded configuration:
//
//  1. Resolve and create the data, exports and logs directories
//  2. Initialize OpenTelemetry and the dashboard metrics
//  3. Select the dataset source and wrap it in the lazy cache
//  4. Create the dashboard service, the live-session hub and health checks
//  5. Mount the router: /api, /ws and /metrics
//  6. Create the HTTP server
//
// NewApplication does the same after loading configuration and the logger.
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    slog.Error("Failed to initialize application", slog.String("error", err.Error()))
//	    os.Exit(1)
//	}
//	if err := application.Run(); err != nil {
//	    os.Exit(1)
//	}
//
// # Startup and Shutdown
//
// Start warms the dataset cache once. A dataset that cannot be loaded is
// logged as a warning and the server keeps running; readiness reports it and
// every data endpoint answers with a problem until the file is fixed.
//
// Run waits for SIGINT or SIGTERM, then Stop closes live sessions, drains HTTP
// requests within the shutdown timeout and flushes telemetry.
//
// Initialization errors are returned to the caller; the package never calls
// os.Exit.
package app
