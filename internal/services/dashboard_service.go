package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dtindex/internal/analytics"
	"dtindex/internal/config"
	apperrors "dtindex/internal/errors"
	"dtindex/internal/exporter"
	"dtindex/internal/infrastructure"
	"dtindex/pkg/contracts/domain"
)

// DatasetProvider hands out the current immutable dataset
type DatasetProvider interface {
	Get(ctx context.Context) (*domain.Dataset, error)
}

// DatasetInfo describes the loaded dataset
type DatasetInfo struct {
	Records    int               `json:"records"`
	Entities   int               `json:"entities"`
	Dimensions []string          `json:"dimensions"`
	Years      []int             `json:"years"`
	Source     domain.SourceInfo `json:"source"`
}

// ExportResult is an encoded view ready to be served or saved
type ExportResult struct {
	Filename    string          `json:"filename"`
	Format      exporter.Format `json:"format"`
	ContentType string          `json:"content_type"`
	Records     int             `json:"records"`
	Data        []byte          `json:"-"`
}

// DashboardService answers every dashboard question from the cached dataset
type DashboardService struct {
	data      DatasetProvider
	validator *Validator
	metrics   *infrastructure.DashboardMetrics
	logger    *slog.Logger
}

// NewDashboardService creates the service; metrics may be nil
func NewDashboardService(data DatasetProvider, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		data:      data,
		validator: NewValidator(),
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "dashboard_service")),
	}
}

// Info returns row, company and year counts plus the source details
func (s *DashboardService) Info(ctx context.Context) (DatasetInfo, error) {
	ds, err := s.data.Get(ctx)
	if err != nil {
		return DatasetInfo{}, err
	}
	return DatasetInfo{
		Records:    ds.Len(),
		Entities:   len(ds.EntityIDs()),
		Dimensions: ds.Dimensions,
		Years:      ds.Years(),
		Source:     ds.Source,
	}, nil
}

// Entities lists the company selector options
func (s *DashboardService) Entities(ctx context.Context) ([]domain.EntityOption, error) {
	ds, err := s.data.Get(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.EntityOptions(ds), nil
}

// Years lists every year present in the dataset
func (s *DashboardService) Years(ctx context.Context) ([]int, error) {
	ds, err := s.data.Get(ctx)
	if err != nil {
		return nil, err
	}
	return ds.Years(), nil
}

// Overview builds the summary card for spec.EntityID. A nil highlight selects
// every year of the dataset; an empty one selects none.
func (s *DashboardService) Overview(ctx context.Context, spec domain.FilterSpec, highlight []int) (overview domain.Overview, err error) {
	defer s.observe(ctx, "overview", &err)()

	ds, view, err := s.entityView(ctx, spec)
	if err != nil {
		return domain.Overview{}, err
	}
	if highlight == nil {
		highlight = ds.Years()
	}

	overview, ok := analytics.Summarize(view, highlight)
	if !ok {
		return domain.Overview{}, apperrors.NewEmptyResultWarning("")
	}
	return overview, nil
}

// Records returns the filtered view
func (s *DashboardService) Records(ctx context.Context, spec domain.FilterSpec) (view *domain.Dataset, err error) {
	defer s.observe(ctx, "records", &err)()

	_, view, err = s.view(ctx, spec)
	return view, err
}

// Describe computes descriptive statistics, rounded for display, for dims of
// the filtered view; no dims means every dimension
func (s *DashboardService) Describe(ctx context.Context, spec domain.FilterSpec, dims []string) (stats []domain.DescriptiveStats, err error) {
	defer s.observe(ctx, "describe", &err)()

	_, view, err := s.view(ctx, spec)
	if err != nil {
		return nil, err
	}
	if dims, err = checkDimensions(view, dims); err != nil {
		return nil, err
	}

	stats = analytics.Describe(view, dims...)
	for i := range stats {
		stats[i] = stats[i].Rounded()
	}
	return stats, nil
}

// Trend fits each requested dimension of the filtered view against year
func (s *DashboardService) Trend(ctx context.Context, spec domain.FilterSpec, dims []string) (trends []domain.TrendResult, err error) {
	defer s.observe(ctx, "trend", &err)()

	_, view, err := s.view(ctx, spec)
	if err != nil {
		return nil, err
	}
	if dims, err = checkDimensions(view, dims); err != nil {
		return nil, err
	}

	trends = analytics.TrendAll(view, dims...)
	if len(trends) == 0 {
		return nil, fmt.Errorf("%w: trend needs at least 2 observations", ErrInsufficientData)
	}
	return trends, nil
}

// Correlation computes the Pearson matrix of dims over the filtered view
func (s *DashboardService) Correlation(ctx context.Context, spec domain.FilterSpec, dims []string) (matrix domain.CorrelationMatrix, err error) {
	defer s.observe(ctx, "correlation", &err)()

	_, view, err := s.view(ctx, spec)
	if err != nil {
		return domain.CorrelationMatrix{}, err
	}
	if dims, err = checkDimensions(view, dims); err != nil {
		return domain.CorrelationMatrix{}, err
	}
	if view.Len() < 2 {
		return domain.CorrelationMatrix{}, fmt.Errorf("%w: correlation needs at least 2 records", ErrInsufficientData)
	}
	return analytics.Correlation(view, dims...), nil
}

// Forecast extrapolates dim of the filtered view horizon years ahead. At least
// config.MinForecastObservations observations are required.
func (s *DashboardService) Forecast(ctx context.Context, spec domain.FilterSpec, dim string, horizon int) (result domain.ForecastResult, err error) {
	defer s.observe(ctx, "forecast", &err)()

	if horizon < config.MinForecastHorizon || horizon > config.MaxForecastHorizon {
		return domain.ForecastResult{}, fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizon)
	}

	_, view, err := s.view(ctx, spec)
	if err != nil {
		return domain.ForecastResult{}, err
	}
	if dim == "" {
		dim = domain.DimensionIndex
	}
	if !view.HasDimension(dim) {
		return domain.ForecastResult{}, fmt.Errorf("%w: %s", ErrUnknownDimension, dim)
	}

	trend, _ := analytics.Trend(view, dim)
	if trend.Observations < config.MinForecastObservations {
		return domain.ForecastResult{}, fmt.Errorf("%w: forecast needs at least %d observations, have %d",
			ErrInsufficientData, config.MinForecastObservations, trend.Observations)
	}
	return analytics.Forecast(view, dim, horizon)
}

// Compare aligns dim for the selected companies over [yearFrom, yearTo]
func (s *DashboardService) Compare(ctx context.Context, ids []string, dim string, yearFrom, yearTo int) (table domain.ComparisonTable, err error) {
	defer s.observe(ctx, "compare", &err)()

	if err := s.validator.Struct(domain.FilterSpec{YearFrom: yearFrom, YearTo: yearTo}); err != nil {
		return domain.ComparisonTable{}, err
	}

	ds, err := s.data.Get(ctx)
	if err != nil {
		return domain.ComparisonTable{}, err
	}
	if dim == "" {
		dim = domain.DimensionIndex
	}
	for _, id := range ids {
		if _, ok := ds.EntityName(id); !ok && id != "" {
			return domain.ComparisonTable{}, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
		}
	}

	table, err = analytics.Compare(ds, ids, dim, yearFrom, yearTo)
	if err != nil {
		return domain.ComparisonTable{}, err
	}
	if len(table.Rows) == 0 {
		return domain.ComparisonTable{}, apperrors.NewEmptyResultWarning("")
	}
	return table, nil
}

// Export encodes the filtered view. The file name embeds the selected company,
// or "all" when the view spans every company.
func (s *DashboardService) Export(ctx context.Context, spec domain.FilterSpec, format exporter.Format) (result *ExportResult, err error) {
	defer s.observe(ctx, "export", &err)()

	_, view, err := s.view(ctx, spec)
	if err != nil {
		return nil, err
	}

	data, err := exporter.Export(view, format)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordExport(ctx, string(format), len(data))

	return &ExportResult{
		Filename:    exporter.ViewFilename(view, spec.EntityID, format),
		Format:      format,
		ContentType: format.ContentType(),
		Records:     view.Len(),
		Data:        data,
	}, nil
}

// view validates spec and filters the dataset; an empty view is an EmptyResultWarning
func (s *DashboardService) view(ctx context.Context, spec domain.FilterSpec) (*domain.Dataset, *domain.Dataset, error) {
	if err := s.validator.Struct(spec); err != nil {
		return nil, nil, err
	}

	ds, err := s.data.Get(ctx)
	if err != nil {
		return nil, nil, err
	}

	if spec.EntityID != "" {
		if _, ok := ds.EntityName(spec.EntityID); !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrEntityNotFound, spec.EntityID)
		}
	}

	view := analytics.Filter(ds, spec)
	if view.Len() == 0 {
		return ds, view, apperrors.NewEmptyResultWarning("")
	}
	return ds, view, nil
}

// entityView is view with a mandatory company
func (s *DashboardService) entityView(ctx context.Context, spec domain.FilterSpec) (*domain.Dataset, *domain.Dataset, error) {
	if spec.EntityID == "" {
		return nil, nil, ErrEntityRequired
	}
	return s.view(ctx, spec)
}

// checkDimensions defaults dims to the schema and rejects unknown names
func checkDimensions(view *domain.Dataset, dims []string) ([]string, error) {
	if len(dims) == 0 {
		return view.Dimensions, nil
	}
	for _, dim := range dims {
		if !view.HasDimension(dim) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDimension, dim)
		}
	}
	return dims, nil
}

// observe logs and counts one analysis call; use as defer s.observe(ctx, kind, &err)()
func (s *DashboardService) observe(ctx context.Context, kind string, errp *error) func() {
	start := time.Now()
	return func() {
		err := *errp
		empty := errors.Is(err, ErrEmptyResult)
		if empty {
			s.metrics.RecordAnalysis(ctx, kind, true, nil)
		} else {
			s.metrics.RecordAnalysis(ctx, kind, false, err)
		}

		switch {
		case err == nil || empty:
			s.logger.DebugContext(ctx, "analysis completed",
				slog.String("kind", kind),
				slog.Bool("empty", empty),
				slog.Duration("duration", time.Since(start)))
		default:
			infrastructure.RecordError(ctx, err)
			s.logger.WarnContext(ctx, "analysis failed",
				slog.String("kind", kind),
				slog.String("error", err.Error()),
				slog.String("otel_trace_id", infrastructure.TraceIDFromContext(ctx)),
				slog.Duration("duration", time.Since(start)))
		}
	}
}
