package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtindex/internal/config"
	"dtindex/internal/shared/testutil"
	"dtindex/pkg/contracts/domain"
)

func writeDataset(t *testing.T) string {
	t.Helper()
	return testutil.WriteWorkbook(t, "index.xlsx", testutil.StandardHeader, [][]interface{}{
		{"600519", "贵州茅台", 2018, 10, 4, 6},
		{"600519", "贵州茅台", 2019, 20, 8, 12},
		{"600519", "贵州茅台", 2020, 30, 12, 18},
		{"600519", "贵州茅台", 2021, 40, 16, 24},
		{"1", "平安银行", 2020, 50, 20, 30},
		{"1", "平安银行", 2021, 45, 20, 25},
	})
}

// run executes the CLI against a fresh workspace and returns stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvPrefix+"_PATHS_EXECUTABLE_DIR", t.TempDir())
	t.Setenv(config.EnvPrefix+"_CONFIG_FILE", "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestEntities(t *testing.T) {
	file := writeDataset(t)

	out, err := run(t, "entities", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "600519")
	assert.Contains(t, out, "000001")
	assert.Contains(t, out, "平安银行")

	out, err = run(t, "entities", "--file", file, "--json")
	require.NoError(t, err)
	var entities []domain.EntityOption
	require.NoError(t, json.Unmarshal([]byte(out), &entities))
	assert.Len(t, entities, 2)
}

func TestOverview(t *testing.T) {
	file := writeDataset(t)

	out, err := run(t, "overview", "--file", file, "--entity", "600519", "--highlight", "2019,2021", "--json")
	require.NoError(t, err)

	var overview domain.Overview
	require.NoError(t, json.Unmarshal([]byte(out), &overview))
	assert.Equal(t, "贵州茅台", overview.EntityName)
	assert.Equal(t, 4, overview.Observations)
	assert.Equal(t, float64(40), overview.Latest)
	assert.Equal(t, domain.DirectionUp, overview.Direction)
	assert.Len(t, overview.Highlighted, 2)

	out, err = run(t, "overview", "--file", file, "--entity", "1", "--from", "2021")
	require.NoError(t, err)
	assert.Contains(t, out, "平安银行")
	assert.Contains(t, out, "45.00")

	_, err = run(t, "overview", "--file", file)
	assert.Error(t, err, "overview needs a company")
}

func TestDescribeAndTrend(t *testing.T) {
	file := writeDataset(t)

	out, err := run(t, "describe", "--file", file, "--entity", "600519", "--dim", domain.DimensionIndex, "--json")
	require.NoError(t, err)
	var stats []domain.DescriptiveStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, 4, stats[0].Count)
	assert.Equal(t, domain.Number(25), stats[0].Mean)

	out, err = run(t, "trend", "--file", file, "--entity", "600519")
	require.NoError(t, err)
	assert.Contains(t, out, "DIMENSION")
	assert.Contains(t, out, domain.DimensionApplication)
	assert.Contains(t, out, "10.00", "index slope is ten points a year")

	_, err = run(t, "describe", "--file", file, "--dim", "规模维度")
	assert.Error(t, err)
}

func TestCorrelation(t *testing.T) {
	out, err := run(t, "correlation", "--file", writeDataset(t), "--entity", "600519", "--json")
	require.NoError(t, err)

	var matrix domain.CorrelationMatrix
	require.NoError(t, json.Unmarshal([]byte(out), &matrix))
	v, ok := matrix.At(domain.DimensionIndex, domain.DimensionIndex)
	require.True(t, ok)
	assert.InDelta(t, 1, v, 1e-9)
}

func TestForecast(t *testing.T) {
	file := writeDataset(t)

	out, err := run(t, "forecast", "--file", file, "--entity", "600519", "--horizon", "2", "--json")
	require.NoError(t, err)

	var result domain.ForecastResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2021, result.LastObservedYear)
	require.Len(t, result.Points, 2)
	assert.Equal(t, 2022, result.Points[0].Year)
	assert.InDelta(t, 50, result.Points[0].Value, 1e-9)

	_, err = run(t, "forecast", "--file", file, "--entity", "1")
	assert.Error(t, err, "two observations are not enough")

	_, err = run(t, "forecast", "--file", file, "--entity", "600519", "--horizon", "9")
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	file := writeDataset(t)

	out, err := run(t, "compare", "--file", file, "--ids", "600519,1", "--from", "2019")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4, "header plus 2019 to 2021")
	assert.Contains(t, lines[1], "-", "平安银行 has no 2019 value")

	_, err = run(t, "compare", "--file", file, "--ids", "999999")
	assert.Error(t, err)
}

func TestEmptyViewIsNotAnError(t *testing.T) {
	file := writeDataset(t)

	out, err := run(t, "describe", "--file", file, "--from", "2030")
	require.NoError(t, err)
	assert.Contains(t, out, "no records match")

	out, err = run(t, "describe", "--file", file, "--from", "2030", "--json")
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "empty", body["status"])
}

func TestExport(t *testing.T) {
	file := writeDataset(t)
	target := filepath.Join(t.TempDir(), "out.csv")

	out, err := run(t, "export", "--file", file, "--entity", "600519", "--range", domain.DimensionIndex+":15:35", "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 records")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\ufeff"))
	assert.Equal(t, 3, strings.Count(string(data), "\n"))

	out, err = run(t, "export", "--file", file, "--format", "json", "--json")
	require.NoError(t, err)
	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, float64(6), summary["records"])
	assert.Equal(t, "all_全部企业_数字化转型指数.json", filepath.Base(summary["path"].(string)))
	assert.FileExists(t, summary["path"].(string))

	_, err = run(t, "export", "--file", file, "--format", "pdf")
	assert.Error(t, err)

	_, err = run(t, "export", "--file", file, "--range", "bad")
	assert.Error(t, err)
}

func TestCSVFileAndMissingFile(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "index.csv")
	content := "股票代码,企业名称,年份,数字化转型指数\n600519,贵州茅台,2021,40\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0o644))

	out, err := run(t, "entities", "--file", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "贵州茅台")

	_, err = run(t, "entities", "--file", filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dtindex")
}

func TestSourceFor(t *testing.T) {
	assert.Equal(t, config.SourceCSV, sourceFor("/data/index.CSV"))
	assert.Equal(t, config.SourceExcel, sourceFor("/data/index.xlsx"))
	assert.Equal(t, config.SourceExcel, sourceFor("/data/index"))
}
