// Package analytics holds the pure computations behind the dashboard:
// filtering, descriptive statistics, least-squares trends, naive forecasts,
// correlation matrices, multi-company comparison and the summary card.
//
// Every function takes an immutable *domain.Dataset and returns fresh values.
// Degenerate inputs produce sentinel values (0 or NaN) rather than errors.
package analytics
