package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"dtindex/pkg/contracts/domain"
)

// SheetName is the single worksheet of an XLSX export
const SheetName = "数据"

// WriteXLSX writes view as a one-sheet workbook with numeric cells
func WriteXLSX(w io.Writer, view *domain.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	cols := header(view)
	row := make([]interface{}, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	if err := sw.SetRow("A1", row); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	if view != nil {
		for i, rec := range view.Records {
			row = append(row[:0], rec.EntityID, rec.EntityName, rec.Year)
			for _, dim := range view.Dimensions {
				if v, ok := rec.Value(dim); ok {
					row = append(row, v)
				} else {
					row = append(row, nil)
				}
			}
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			if err := sw.SetRow(cell, row); err != nil {
				return fmt.Errorf("failed to write record %d: %w", i, err)
			}
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
