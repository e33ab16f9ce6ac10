package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "dtindex/internal/errors"
	"dtindex/internal/exporter"
	"dtindex/internal/shared/testutil"
	"dtindex/pkg/contracts/domain"
)

// MockDatasetProvider is a testify mock of DatasetProvider
type MockDatasetProvider struct {
	mock.Mock
}

func (m *MockDatasetProvider) Get(ctx context.Context) (*domain.Dataset, error) {
	args := m.Called(ctx)
	ds, _ := args.Get(0).(*domain.Dataset)
	return ds, args.Error(1)
}

func newTestService(t *testing.T) (*DashboardService, *MockDatasetProvider) {
	t.Helper()
	provider := &MockDatasetProvider{}
	provider.On("Get", mock.Anything).Return(testutil.SampleDataset(), nil)
	logger, _ := testutil.NewTestLogger(t)
	return NewDashboardService(provider, nil, logger), provider
}

func TestDashboardService_Info(t *testing.T) {
	svc, provider := newTestService(t)

	info, err := svc.Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, info.Records)
	assert.Equal(t, 2, info.Entities)
	assert.Equal(t, []int{2018, 2019, 2020, 2021}, info.Years)
	assert.Len(t, info.Dimensions, 3)
	provider.AssertExpectations(t)
}

func TestDashboardService_LoadFailure(t *testing.T) {
	provider := &MockDatasetProvider{}
	loadErr := apperrors.NewMissingFileError("data.xlsx", nil)
	provider.On("Get", mock.Anything).Return(nil, loadErr)
	logger, _ := testutil.NewTestLogger(t)
	svc := NewDashboardService(provider, nil, logger)

	_, err := svc.Entities(context.Background())
	assert.ErrorIs(t, err, loadErr)

	_, err = svc.Describe(context.Background(), domain.FilterSpec{}, nil)
	var dle *apperrors.DataLoadError
	assert.True(t, errors.As(err, &dle))
}

func TestDashboardService_EntitiesAndYears(t *testing.T) {
	svc, _ := newTestService(t)

	opts, err := svc.Entities(context.Background())
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "000001 - 平安银行", opts[0].Label)

	years, err := svc.Years(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2018, 2019, 2020, 2021}, years)
}

func TestDashboardService_Overview(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ov, err := svc.Overview(ctx, domain.FilterSpec{EntityID: "600519"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2018 - 2021", ov.YearRange, "nil highlight selects every year")
	assert.Len(t, ov.Highlighted, 4)

	ov, err = svc.Overview(ctx, domain.FilterSpec{EntityID: "600519"}, []int{})
	require.NoError(t, err)
	assert.Equal(t, "no years selected", ov.YearRange)

	_, err = svc.Overview(ctx, domain.FilterSpec{}, nil)
	assert.ErrorIs(t, err, ErrEntityRequired)

	_, err = svc.Overview(ctx, domain.FilterSpec{EntityID: "999999"}, nil)
	assert.ErrorIs(t, err, ErrEntityNotFound)

	_, err = svc.Overview(ctx, domain.FilterSpec{EntityID: "600519", YearFrom: 2030}, nil)
	assert.ErrorIs(t, err, ErrEmptyResult)
	var warn *apperrors.EmptyResultWarning
	assert.True(t, errors.As(err, &warn))
}

func TestDashboardService_ValidatesFilter(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name string
		spec domain.FilterSpec
	}{
		{"year too small", domain.FilterSpec{YearFrom: 10}},
		{"inverted years", domain.FilterSpec{YearFrom: 2021, YearTo: 2019}},
		{"inverted range", domain.FilterSpec{Ranges: map[string]domain.Range{domain.DimensionIndex: {Min: 5, Max: 1}}}},
		{"bad entity id", domain.FilterSpec{EntityID: "60 05<19>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Records(context.Background(), tt.spec)
			var apiErr *apperrors.APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
		})
	}
}

func TestDashboardService_Records(t *testing.T) {
	svc, _ := newTestService(t)

	view, err := svc.Records(context.Background(), domain.FilterSpec{YearFrom: 2019, YearTo: 2019})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Len())
}

func TestDashboardService_Describe(t *testing.T) {
	svc, _ := newTestService(t)

	stats, err := svc.Describe(context.Background(), domain.FilterSpec{EntityID: "600519"}, []string{domain.DimensionIndex})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, domain.Number(12.91), stats[0].Std)

	_, err = svc.Describe(context.Background(), domain.FilterSpec{}, []string{"资产"})
	assert.ErrorIs(t, err, ErrUnknownDimension)
}

func TestDashboardService_Trend(t *testing.T) {
	svc, _ := newTestService(t)

	trends, err := svc.Trend(context.Background(), domain.FilterSpec{EntityID: "600519"}, nil)
	require.NoError(t, err)
	assert.Len(t, trends, 3)

	_, err = svc.Trend(context.Background(), domain.FilterSpec{EntityID: "600519", YearFrom: 2021}, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestDashboardService_Correlation(t *testing.T) {
	svc, _ := newTestService(t)

	m, err := svc.Correlation(context.Background(), domain.FilterSpec{}, nil)
	require.NoError(t, err)
	assert.Len(t, m.Dimensions, 3)

	_, err = svc.Correlation(context.Background(), domain.FilterSpec{EntityID: "600519", YearTo: 2018}, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestDashboardService_Forecast(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	fc, err := svc.Forecast(ctx, domain.FilterSpec{EntityID: "600519"}, "", 2)
	require.NoError(t, err)
	require.Len(t, fc.Points, 2)
	assert.Equal(t, 2022, fc.Points[0].Year)
	assert.InDelta(t, 50.0, fc.Points[0].Value, 1e-6)

	_, err = svc.Forecast(ctx, domain.FilterSpec{EntityID: "000001"}, "", 2)
	assert.ErrorIs(t, err, ErrInsufficientData, "two observations are below the forecast minimum")

	_, err = svc.Forecast(ctx, domain.FilterSpec{EntityID: "600519"}, "", 6)
	assert.ErrorIs(t, err, ErrInvalidHorizon)

	_, err = svc.Forecast(ctx, domain.FilterSpec{EntityID: "600519"}, "资产", 1)
	assert.ErrorIs(t, err, ErrUnknownDimension)
}

func TestDashboardService_Compare(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	table, err := svc.Compare(ctx, []string{"600519", "000001"}, "", 2019, 2021)
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, domain.DimensionIndex, table.Dimension)
	assert.Nil(t, table.Rows[1].Values[1], "平安银行 has no 2020 value")

	_, err = svc.Compare(ctx, []string{"600519", "404404"}, "", 0, 0)
	assert.ErrorIs(t, err, ErrEntityNotFound)

	_, err = svc.Compare(ctx, []string{"600519"}, "", 2030, 2031)
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = svc.Compare(ctx, nil, "", 0, 0)
	assert.ErrorIs(t, err, ErrNoEntities)
}

func TestDashboardService_Export(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Export(context.Background(), domain.FilterSpec{EntityID: "600519"}, exporter.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "600519_贵州茅台_数字化转型指数.csv", res.Filename)
	assert.Equal(t, 4, res.Records)
	assert.Equal(t, "text/csv; charset=utf-8", res.ContentType)
	assert.NotEmpty(t, res.Data)

	all, err := svc.Export(context.Background(), domain.FilterSpec{}, exporter.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "all_全部企业_数字化转型指数.json", all.Filename)

	_, err = svc.Export(context.Background(), domain.FilterSpec{}, exporter.Format("pdf"))
	assert.ErrorIs(t, err, exporter.ErrUnsupportedFormat)
}
