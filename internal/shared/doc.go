// Package shared holds helpers used across the dtindex packages that belong to no
// single layer. Its testutil subpackage provides captured slog handlers, a sample
// dataset and workbook builders for tests.
package shared
