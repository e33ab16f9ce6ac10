package websocket

import (
	"context"
	"errors"

	"dtindex/internal/config"
	apierrors "dtindex/internal/errors"
	"dtindex/internal/services"
	"dtindex/pkg/contracts/domain"
	"dtindex/pkg/contracts/events"
)

// Analyzer is the subset of the dashboard service a live session drives
type Analyzer interface {
	Info(ctx context.Context) (services.DatasetInfo, error)
	Records(ctx context.Context, spec domain.FilterSpec) (*domain.Dataset, error)
	Overview(ctx context.Context, spec domain.FilterSpec, highlight []int) (domain.Overview, error)
	Describe(ctx context.Context, spec domain.FilterSpec, dims []string) ([]domain.DescriptiveStats, error)
	Trend(ctx context.Context, spec domain.FilterSpec, dims []string) ([]domain.TrendResult, error)
	Correlation(ctx context.Context, spec domain.FilterSpec, dims []string) (domain.CorrelationMatrix, error)
	Forecast(ctx context.Context, spec domain.FilterSpec, dim string, horizon int) (domain.ForecastResult, error)
}

var _ Analyzer = (*services.DashboardService)(nil)

// analyze answers one filter message. The filter is applied once up front:
// an empty view yields an empty message and a rejected filter an error
// message. Views that fail individually become notices. The second result
// reports a fatal error that ends the session.
func analyze(ctx context.Context, a Analyzer, msg events.FilterMessage, traceID string) (interface{}, bool) {
	view, err := a.Records(ctx, msg.Filter)
	if err != nil {
		var empty *apierrors.EmptyResultWarning
		if errors.As(err, &empty) {
			return events.EmptyMessage{
				BaseMessage: events.NewBase(events.MessageTypeEmpty, msg.RequestID, traceID),
				Notice:      empty.Notice,
			}, false
		}
		data := errorData(err)
		return errorMessage(msg.RequestID, traceID, data), data.Fatal
	}

	views := msg.Views
	if len(views) == 0 {
		views = events.DefaultViews
	}
	horizon := msg.Horizon
	if horizon == 0 {
		horizon = config.DefaultForecastHorizon
	}

	var out events.AnalysisData
	notice := func(v events.View, err error) {
		if out.Notices == nil {
			out.Notices = make(map[events.View]string)
		}
		out.Notices[v] = err.Error()
	}

	for _, v := range views {
		switch v {
		case events.ViewRecords:
			out.Records = view.Records

		case events.ViewOverview:
			overview, err := a.Overview(ctx, msg.Filter, msg.Highlight)
			if err != nil {
				notice(v, err)
				continue
			}
			out.Overview = &overview

		case events.ViewDescribe:
			stats, err := a.Describe(ctx, msg.Filter, msg.Dims)
			if err != nil {
				notice(v, err)
				continue
			}
			out.Describe = stats

		case events.ViewTrend:
			trends, err := a.Trend(ctx, msg.Filter, msg.Dims)
			if err != nil {
				notice(v, err)
				continue
			}
			out.Trend = trends

		case events.ViewCorrelation:
			matrix, err := a.Correlation(ctx, msg.Filter, msg.Dims)
			if err != nil {
				notice(v, err)
				continue
			}
			out.Correlation = &matrix

		case events.ViewForecast:
			forecast, err := a.Forecast(ctx, msg.Filter, msg.Dim, horizon)
			if err != nil {
				notice(v, err)
				continue
			}
			out.Forecast = &forecast

		default:
			notice(v, errors.New("unknown view"))
		}
	}

	return events.AnalysisMessage{
		BaseMessage: events.NewBase(events.MessageTypeAnalysis, msg.RequestID, traceID),
		Data:        out,
	}, false
}

// errorData classifies a filter failure; a dataset that cannot be loaded is fatal
func errorData(err error) events.ErrorData {
	var loadErr *apierrors.DataLoadError
	if errors.As(err, &loadErr) {
		return events.ErrorData{
			Code:    events.ErrCodeDataLoad,
			Message: loadErr.Error(),
			Details: map[string]interface{}{"kind": loadErr.Kind, "missing_columns": loadErr.Missing},
			Fatal:   true,
		}
	}

	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return events.ErrorData{
			Code:    events.ErrCodeInvalidFilter,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}
	}

	if errors.Is(err, services.ErrEntityNotFound) {
		return events.ErrorData{Code: events.ErrCodeNotFound, Message: err.Error()}
	}

	return events.ErrorData{Code: events.ErrCodeServerError, Message: err.Error()}
}

func errorMessage(requestID, traceID string, data events.ErrorData) events.ErrorMessage {
	return events.ErrorMessage{
		BaseMessage: events.NewBase(events.MessageTypeError, requestID, traceID),
		Data:        data,
	}
}
