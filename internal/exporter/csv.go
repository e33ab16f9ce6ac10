package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"dtindex/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// header returns the export column names for view
func header(view *domain.Dataset) []string {
	cols := []string{domain.ColumnEntityID, domain.ColumnEntityName, domain.ColumnYear}
	if view != nil {
		cols = append(cols, view.Dimensions...)
	}
	return cols
}

// WriteCSV writes view as UTF-8 CSV with a byte order mark so spreadsheet
// applications detect the encoding
func WriteCSV(w io.Writer, view *domain.Dataset) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header(view)); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	if view != nil {
		record := make([]string, 0, 3+len(view.Dimensions))
		for i, rec := range view.Records {
			record = append(record[:0], rec.EntityID, rec.EntityName, formatInt(rec.Year))
			for _, dim := range view.Dimensions {
				if v, ok := rec.Value(dim); ok {
					record = append(record, formatFloat(v))
				} else {
					record = append(record, "")
				}
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write record %d: %w", i, err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
