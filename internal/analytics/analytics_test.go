package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtindex/internal/shared/testutil"
	"dtindex/pkg/contracts/domain"
)

func series(id string, pts ...[2]float64) *domain.Dataset {
	ds := &domain.Dataset{Dimensions: []string{domain.DimensionIndex}}
	for _, p := range pts {
		ds.Records = append(ds.Records, domain.Record{
			EntityID: id,
			Year:     int(p[0]),
			Metrics:  map[string]float64{domain.DimensionIndex: p[1]},
		})
	}
	return ds
}

func TestFilter(t *testing.T) {
	ds := testutil.SampleDataset()
	// shuffle so ordering is the filter's doing
	ds.Records[0], ds.Records[5] = ds.Records[5], ds.Records[0]
	original := append([]domain.Record(nil), ds.Records...)

	tests := []struct {
		name      string
		spec      domain.FilterSpec
		wantYears []int
	}{
		{"no constraints", domain.FilterSpec{}, []int{2018, 2019, 2019, 2020, 2021, 2021}},
		{"entity", domain.FilterSpec{EntityID: "000001"}, []int{2019, 2021}},
		{"year range", domain.FilterSpec{YearFrom: 2019, YearTo: 2020}, []int{2019, 2019, 2020}},
		{"open upper bound", domain.FilterSpec{YearFrom: 2021}, []int{2021, 2021}},
		{"value range", domain.FilterSpec{Ranges: map[string]domain.Range{domain.DimensionIndex: {Min: 20, Max: 45}}}, []int{2019, 2020, 2021, 2021}},
		{"unknown dimension ignored", domain.FilterSpec{EntityID: "600519", Ranges: map[string]domain.Range{"资产": {Min: 1e9, Max: 2e9}}}, []int{2018, 2019, 2020, 2021}},
		{"empty result", domain.FilterSpec{EntityID: "999999"}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := Filter(ds, tt.spec)

			years := make([]int, 0, view.Len())
			for _, rec := range view.Records {
				years = append(years, rec.Year)
				assert.True(t, matches(rec, tt.spec, map[string]domain.Range{}), "subset of rows satisfying the entity and year predicates")
			}
			assert.Equal(t, tt.wantYears, years)
			assert.Equal(t, ds.Dimensions, view.Dimensions)
			assert.Equal(t, original, ds.Records, "input must not be mutated")
		})
	}
}

func TestFilter_MissingConstrainedValueExcluded(t *testing.T) {
	ds := testutil.SampleDataset()
	delete(ds.Records[1].Metrics, domain.DimensionApplication)

	view := Filter(ds, domain.FilterSpec{
		EntityID: "600519",
		Ranges:   map[string]domain.Range{domain.DimensionApplication: {Min: 0, Max: 100}},
	})

	require.Equal(t, 3, view.Len())
	for _, rec := range view.Records {
		assert.NotEqual(t, 2019, rec.Year)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	ds := testutil.SampleDataset()
	spec := domain.FilterSpec{
		YearFrom: 2019,
		Ranges:   map[string]domain.Range{domain.DimensionTechnology: {Min: 10, Max: 25}},
	}

	once := Filter(ds, spec)
	twice := Filter(once, spec)
	assert.Equal(t, once.Records, twice.Records)
}

func TestFilter_NilDataset(t *testing.T) {
	view := Filter(nil, domain.FilterSpec{EntityID: "x"})
	assert.Equal(t, 0, view.Len())
}

func TestDescribe(t *testing.T) {
	view := series("a", [2]float64{2018, 1}, [2]float64{2019, 2}, [2]float64{2020, 3}, [2]float64{2021, 4})

	stats := Describe(view)
	require.Len(t, stats, 1)
	s := stats[0]

	assert.Equal(t, domain.DimensionIndex, s.Dimension)
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, float64(s.Mean), 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), float64(s.Std), 1e-12)
	assert.InDelta(t, 1.0, float64(s.Min), 1e-12)
	assert.InDelta(t, 1.75, float64(s.Q1), 1e-12)
	assert.InDelta(t, 2.5, float64(s.Median), 1e-12)
	assert.InDelta(t, 3.25, float64(s.Q3), 1e-12)
	assert.InDelta(t, 4.0, float64(s.Max), 1e-12)

	assert.Equal(t, domain.Number(1.29), s.Rounded().Std)
}

func TestDescribe_Degenerate(t *testing.T) {
	one := Describe(series("a", [2]float64{2020, 7}), domain.DimensionIndex)[0]
	assert.Equal(t, 1, one.Count)
	assert.True(t, one.Std.IsNaN(), "sample std is undefined for one value")
	assert.Equal(t, domain.Number(7), one.Median)

	none := Describe(series("a"), domain.DimensionIndex, domain.DimensionApplication)
	require.Len(t, none, 2)
	assert.Equal(t, 0, none[1].Count)
	assert.True(t, none[1].Mean.IsNaN())
	assert.True(t, none[1].Max.IsNaN())
}

func TestTrend_TwoPoints(t *testing.T) {
	tr, ok := Trend(series("a", [2]float64{2000, 10}, [2]float64{2001, 20}), domain.DimensionIndex)
	require.True(t, ok)

	assert.InDelta(t, 10.0, tr.Slope, 1e-9)
	assert.InDelta(t, -19990.0, tr.Intercept, 1e-6)
	assert.InDelta(t, 100.0, tr.GrowthRate, 1e-9)
	assert.InDelta(t, 1.0, tr.RSquared, 1e-9)
	assert.Equal(t, 2, tr.Observations)
	assert.Equal(t, 2000, tr.StartYear)
	assert.Equal(t, 2001, tr.EndYear)
}

func TestTrend_ZeroStartValue(t *testing.T) {
	tr, ok := Trend(series("a", [2]float64{2000, 0}, [2]float64{2001, 5}), domain.DimensionIndex)
	require.True(t, ok)

	assert.Equal(t, 0.0, tr.GrowthRate)
	assert.False(t, math.IsNaN(tr.GrowthRate))
	assert.InDelta(t, 5.0, tr.Slope, 1e-9)
}

func TestTrend_Degenerate(t *testing.T) {
	_, ok := Trend(series("a", [2]float64{2000, 1}), domain.DimensionIndex)
	assert.False(t, ok, "one observation")

	sameYear, ok := Trend(series("a", [2]float64{2020, 4}, [2]float64{2020, 8}), domain.DimensionIndex)
	require.True(t, ok)
	assert.Equal(t, 0.0, sameYear.Slope)
	assert.Equal(t, 6.0, sameYear.Intercept)
	assert.Equal(t, 0.0, sameYear.RSquared)

	flat, ok := Trend(series("a", [2]float64{2019, 3}, [2]float64{2020, 3}, [2]float64{2021, 3}), domain.DimensionIndex)
	require.True(t, ok)
	assert.Equal(t, 0.0, flat.Slope)
	assert.Equal(t, 0.0, flat.RSquared)
	assert.InDelta(t, 3.0, flat.Predict(2030), 1e-9)
}

func TestTrend_OrdersByYear(t *testing.T) {
	tr, ok := Trend(series("a", [2]float64{2021, 40}, [2]float64{2018, 10}, [2]float64{2019, 20}), domain.DimensionIndex)
	require.True(t, ok)
	assert.Equal(t, 10.0, tr.StartValue)
	assert.Equal(t, 40.0, tr.EndValue)
	assert.InDelta(t, 300.0, tr.GrowthRate, 1e-9)
}

func TestTrendAll(t *testing.T) {
	view := Filter(testutil.SampleDataset(), domain.FilterSpec{EntityID: "600519"})

	trends := TrendAll(view)
	require.Len(t, trends, 3)
	assert.InDelta(t, 10.0, trends[0].Slope, 1e-9)
	assert.InDelta(t, 4.0, trends[1].Slope, 1e-9)
	assert.InDelta(t, 6.0, trends[2].Slope, 1e-9)

	assert.Empty(t, TrendAll(series("a", [2]float64{2020, 1})))
}

func TestForecast(t *testing.T) {
	view := series("a", [2]float64{2019, 10}, [2]float64{2020, 12}, [2]float64{2021, 14})

	fc, err := Forecast(view, domain.DimensionIndex, 2)
	require.NoError(t, err)

	require.Len(t, fc.Points, 2)
	assert.Equal(t, 2022, fc.Points[0].Year)
	assert.InDelta(t, 16.0, fc.Points[0].Value, 1e-6)
	assert.Equal(t, 2023, fc.Points[1].Year)
	assert.InDelta(t, 18.0, fc.Points[1].Value, 1e-6)
	assert.Equal(t, 2021, fc.LastObservedYear)
	assert.InDelta(t, 2.0, fc.Slope, 1e-9)
}

func TestForecast_UsesWholeSeries(t *testing.T) {
	view := series("a", [2]float64{2018, 0}, [2]float64{2019, 10}, [2]float64{2020, 10}, [2]float64{2021, 20})

	fc, err := Forecast(view, domain.DimensionIndex, 1)
	require.NoError(t, err)

	tr, _ := Trend(view, domain.DimensionIndex)
	assert.InDelta(t, tr.Predict(2022), fc.Points[0].Value, 1e-9)
	assert.InDelta(t, 6.0, fc.Slope, 1e-9)
}

func TestForecast_Errors(t *testing.T) {
	view := series("a", [2]float64{2019, 10}, [2]float64{2020, 12}, [2]float64{2021, 14})

	for _, h := range []int{0, 6, -1} {
		_, err := Forecast(view, domain.DimensionIndex, h)
		assert.ErrorIs(t, err, ErrInvalidHorizon)
	}

	_, err := Forecast(series("a", [2]float64{2019, 10}), domain.DimensionIndex, 3)
	assert.ErrorIs(t, err, ErrTooFewObservations)
}

func TestCorrelation(t *testing.T) {
	ds := testutil.SampleDataset()
	ds.Records[0].Metrics[domain.DimensionTechnology] = 7

	m := Correlation(ds)
	require.Len(t, m.Values, 3)

	for i := range m.Dimensions {
		assert.Equal(t, domain.Number(1), m.Values[i][i], "diagonal of %s", m.Dimensions[i])
		for j := range m.Dimensions {
			assert.Equal(t, m.Values[i][j], m.Values[j][i])
		}
	}

	r, ok := m.At(domain.DimensionIndex, domain.DimensionApplication)
	require.True(t, ok)
	assert.True(t, r > 0.9 && r <= 1)
}

func TestCorrelation_ZeroVariance(t *testing.T) {
	ds := Filter(testutil.SampleDataset(), domain.FilterSpec{EntityID: "000001"})

	m := Correlation(ds, domain.DimensionIndex, domain.DimensionTechnology)

	assert.Equal(t, domain.Number(1), m.Values[0][0])
	assert.True(t, m.Values[1][1].IsNaN(), "constant series has no defined correlation")
	assert.True(t, m.Values[0][1].IsNaN())
}

func TestCorrelation_PairwiseComplete(t *testing.T) {
	ds := series("a", [2]float64{2018, 1}, [2]float64{2019, 2}, [2]float64{2020, 3})
	ds.Dimensions = append(ds.Dimensions, domain.DimensionApplication)
	ds.Records[0].Metrics[domain.DimensionApplication] = 10
	ds.Records[2].Metrics[domain.DimensionApplication] = 30

	m := Correlation(ds)
	r, _ := m.At(domain.DimensionIndex, domain.DimensionApplication)
	assert.InDelta(t, 1.0, r, 1e-12)
}

func TestCompare_OuterJoin(t *testing.T) {
	ds := &domain.Dataset{
		Dimensions: []string{domain.DimensionIndex},
		Records: []domain.Record{
			{EntityID: "A", EntityName: "甲", Year: 2019, Metrics: map[string]float64{domain.DimensionIndex: 1}},
			{EntityID: "A", EntityName: "甲", Year: 2020, Metrics: map[string]float64{domain.DimensionIndex: 2}},
			{EntityID: "B", EntityName: "乙", Year: 2020, Metrics: map[string]float64{domain.DimensionIndex: 3}},
			{EntityID: "B", EntityName: "乙", Year: 2021, Metrics: map[string]float64{domain.DimensionIndex: 4}},
			{EntityID: "B", EntityName: "乙", Year: 2022, Metrics: map[string]float64{domain.DimensionIndex: 5}},
		},
	}

	table, err := Compare(ds, []string{"A", "B"}, domain.DimensionIndex, 2019, 2021)
	require.NoError(t, err)

	assert.Equal(t, []domain.ComparisonSeries{{EntityID: "A", Label: "甲"}, {EntityID: "B", Label: "乙"}}, table.Columns)
	require.Len(t, table.Rows, 3)

	assert.Equal(t, 2019, table.Rows[0].Year)
	assert.Equal(t, 1.0, *table.Rows[0].Values[0])
	assert.Nil(t, table.Rows[0].Values[1])

	assert.Equal(t, 2020, table.Rows[1].Year)
	assert.Equal(t, 2.0, *table.Rows[1].Values[0])
	assert.Equal(t, 3.0, *table.Rows[1].Values[1])

	assert.Equal(t, 2021, table.Rows[2].Year)
	assert.Nil(t, table.Rows[2].Values[0])
	assert.Equal(t, 4.0, *table.Rows[2].Values[1])
}

func TestCompare_Labels(t *testing.T) {
	ds := &domain.Dataset{
		Dimensions: []string{domain.DimensionIndex},
		Records: []domain.Record{
			{EntityID: "000002", EntityName: "万科", Year: 2020, Metrics: map[string]float64{domain.DimensionIndex: 1}},
			{EntityID: "200002", EntityName: "万科", Year: 2020, Metrics: map[string]float64{domain.DimensionIndex: 2}},
			{EntityID: "600519", EntityName: "贵州茅台", Year: 2020, Metrics: map[string]float64{domain.DimensionIndex: 3}},
		},
	}

	table, err := Compare(ds, []string{"600519", "200002", "000002", "600519", "404404"}, domain.DimensionIndex, 0, 0)
	require.NoError(t, err)

	labels := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{"贵州茅台", "万科 (200002)", "万科 (000002)", "404404"}, labels)
	require.Len(t, table.Rows, 1)
	assert.Nil(t, table.Rows[0].Values[3])
}

func TestCompare_Errors(t *testing.T) {
	ds := testutil.SampleDataset()

	_, err := Compare(ds, []string{"1", "2", "3", "4", "5", "6"}, domain.DimensionIndex, 0, 0)
	assert.ErrorIs(t, err, ErrTooManyEntities)

	_, err = Compare(ds, nil, domain.DimensionIndex, 0, 0)
	assert.ErrorIs(t, err, ErrNoEntities)

	_, err = Compare(ds, []string{"600519"}, "资产", 0, 0)
	assert.ErrorIs(t, err, ErrUnknownDimension)
}

func TestSummarize(t *testing.T) {
	view := Filter(testutil.SampleDataset(), domain.FilterSpec{EntityID: "600519"})

	ov, ok := Summarize(view, []int{2021, 2019, 2030})
	require.True(t, ok)

	assert.Equal(t, "600519", ov.EntityID)
	assert.Equal(t, "贵州茅台", ov.EntityName)
	assert.Equal(t, "2019 - 2030", ov.YearRange)
	assert.Equal(t, 4, ov.Observations)
	assert.Equal(t, 40.0, ov.Latest)
	assert.Equal(t, 40.0, ov.Max)
	assert.Equal(t, 10.0, ov.Min)
	assert.Equal(t, 25.0, ov.Mean)
	assert.Equal(t, domain.DirectionUp, ov.Direction)
	assert.Len(t, ov.Series, 4)
	assert.Equal(t, []domain.SeriesPoint{{Year: 2019, Value: 20}, {Year: 2021, Value: 40}}, ov.Highlighted)

	require.Len(t, ov.Details, 4)
	assert.Equal(t, 2018, ov.Details[0].Year)
	assert.Equal(t, domain.Number(4), ov.Details[0].Values[domain.DimensionApplication])
}

func TestSummarize_DownAndEmpty(t *testing.T) {
	view := Filter(testutil.SampleDataset(), domain.FilterSpec{EntityID: "000001"})
	ov, ok := Summarize(view, nil)
	require.True(t, ok)
	assert.Equal(t, domain.DirectionDown, ov.Direction)
	assert.Equal(t, NoYearsSelected, ov.YearRange)
	assert.Empty(t, ov.Highlighted)

	_, ok = Summarize(&domain.Dataset{}, []int{2020})
	assert.False(t, ok)
}

func TestEntityOptions(t *testing.T) {
	opts := EntityOptions(testutil.SampleDataset())

	assert.Equal(t, []domain.EntityOption{
		{ID: "000001", Name: "平安银行", Label: "000001 - 平安银行"},
		{ID: "600519", Name: "贵州茅台", Label: "600519 - 贵州茅台"},
	}, opts)
	assert.Empty(t, EntityOptions(nil))
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 2.0, quantile(sorted, 0.25))
	assert.Equal(t, 3.0, quantile(sorted, 0.5))
	assert.Equal(t, 5.0, quantile(sorted, 1))
	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
}
