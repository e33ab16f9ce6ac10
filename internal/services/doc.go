// Package services implements the business logic layer of the dashboard.
// It sits between the transports (HTTP handlers, live sessions, the CLI) and
// the pure analytics functions, so every surface applies the same rules.
//
// # Architecture
//
//  1. The dataset comes from a DatasetProvider, normally *dataset.Cache
//  2. Every call validates its filter, derives a fresh view and computes on it
//  3. Results are plain domain values; nothing derived is stored
//
// # Error Handling
//
// Services return sentinel errors wrapped with %w that handlers map to
// HTTP problems:
//
//   - ErrEntityNotFound for an unknown company id
//   - ErrInsufficientData when a computation lacks observations
//   - ErrUnknownDimension for a dimension outside the schema
//   - *errors.EmptyResultWarning when the filter matches nothing
//   - *errors.DataLoadError when the dataset itself cannot be loaded
//
// # Available Services
//
//   - DashboardService: overview card, statistics, trends, forecasts, comparison, export
//   - HealthService: liveness, readiness (dataset loadable) and version details
package services
