// Package dataset loads the annual-report spreadsheet into an immutable
// domain.Dataset and keeps one process-wide cached copy.
//
// Three sources are supported: a local Excel workbook (the default), a CSV file
// such as one produced by the exporter, and a Google Sheets range. All of them
// yield raw string rows which Parse turns into records:
//
//   - header names are trimmed and two known misspellings are repaired
//   - 股票代码, 企业名称, 年份 and 数字化转型指数 are required
//   - numeric company codes become six-digit zero-padded strings
//   - blank or non-numeric metric cells are absent, never zero
//   - each company keeps its most frequent name
//
// Cache coalesces concurrent first loads and reloads only when the source file
// changes on disk.
package dataset
