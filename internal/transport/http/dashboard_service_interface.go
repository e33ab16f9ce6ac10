package http

import (
	"context"

	"dtindex/internal/exporter"
	"dtindex/internal/services"
	"dtindex/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations used by the handlers
type DashboardServiceInterface interface {
	Info(ctx context.Context) (services.DatasetInfo, error)
	Entities(ctx context.Context) ([]domain.EntityOption, error)
	Years(ctx context.Context) ([]int, error)
	Overview(ctx context.Context, spec domain.FilterSpec, highlight []int) (domain.Overview, error)
	Records(ctx context.Context, spec domain.FilterSpec) (*domain.Dataset, error)
	Describe(ctx context.Context, spec domain.FilterSpec, dims []string) ([]domain.DescriptiveStats, error)
	Trend(ctx context.Context, spec domain.FilterSpec, dims []string) ([]domain.TrendResult, error)
	Correlation(ctx context.Context, spec domain.FilterSpec, dims []string) (domain.CorrelationMatrix, error)
	Forecast(ctx context.Context, spec domain.FilterSpec, dim string, horizon int) (domain.ForecastResult, error)
	Compare(ctx context.Context, ids []string, dim string, yearFrom, yearTo int) (domain.ComparisonTable, error)
	Export(ctx context.Context, spec domain.FilterSpec, format exporter.Format) (*services.ExportResult, error)
}

var _ DashboardServiceInterface = (*services.DashboardService)(nil)
