// Package exporter renders a filtered view of the index dataset as CSV, XLSX
// or JSON.
//
// All three formats share one column layout: 股票代码, 企业名称, 年份, then the
// view's dimensions in schema order. A metric missing from a record is a blank
// CSV cell, an empty XLSX cell and a JSON null.
//
// Example usage:
//
//	data, err := exporter.Export(view, exporter.FormatCSV)
//
//	// Or write into the exports directory
//	w := exporter.NewWriter(paths, logger)
//	path, err := w.WriteFile(view, exporter.FormatXLSX, exporter.Filename(id, name, exporter.FormatXLSX))
package exporter
