package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dtindex/pkg/contracts/domain"
)

// StandardHeader is the header row of a well-formed annual-report workbook
var StandardHeader = []interface{}{
	domain.ColumnEntityID,
	domain.ColumnEntityName,
	domain.ColumnYear,
	domain.DimensionIndex,
	domain.DimensionApplication,
	domain.DimensionTechnology,
}

// WriteWorkbook writes header and rows to the first sheet of a new workbook
// under t.TempDir() and returns its path.
func WriteWorkbook(t *testing.T, name string, header []interface{}, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	all := append([][]interface{}{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &values))
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func metrics(index, app, tech float64) map[string]float64 {
	return map[string]float64{
		domain.DimensionIndex:       index,
		domain.DimensionApplication: app,
		domain.DimensionTechnology:  tech,
	}
}

// SampleDataset returns a small two-company dataset, years 2018-2021
func SampleDataset() *domain.Dataset {
	return &domain.Dataset{
		Dimensions: []string{domain.DimensionIndex, domain.DimensionApplication, domain.DimensionTechnology},
		Records: []domain.Record{
			{EntityID: "600519", EntityName: "贵州茅台", Year: 2018, Metrics: metrics(10, 4, 6)},
			{EntityID: "600519", EntityName: "贵州茅台", Year: 2019, Metrics: metrics(20, 8, 12)},
			{EntityID: "600519", EntityName: "贵州茅台", Year: 2020, Metrics: metrics(30, 12, 18)},
			{EntityID: "600519", EntityName: "贵州茅台", Year: 2021, Metrics: metrics(40, 16, 24)},
			{EntityID: "000001", EntityName: "平安银行", Year: 2019, Metrics: metrics(55, 30, 25)},
			{EntityID: "000001", EntityName: "平安银行", Year: 2021, Metrics: metrics(45, 20, 25)},
		},
		Source: domain.SourceInfo{Kind: "memory", Location: "fixture"},
	}
}
