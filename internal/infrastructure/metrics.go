package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DashboardMetrics holds the application-specific instruments. A nil
// *DashboardMetrics is valid and records nothing.
type DashboardMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	DatasetLoads        metric.Int64Counter
	DatasetLoadDuration metric.Float64Histogram
	DatasetRecords      metric.Int64Gauge

	AnalysisRequests metric.Int64Counter
	ExportBytes      metric.Int64Counter

	SessionMessages metric.Int64Counter
	ActiveSessions  metric.Int64UpDownCounter
}

// CreateDashboardMetrics registers all instruments on meter
func CreateDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	m := &DashboardMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.DatasetLoads, err = meter.Int64Counter(
		"dataset_loads_total",
		metric.WithDescription("Dataset load attempts by outcome"),
	); err != nil {
		return nil, err
	}

	if m.DatasetLoadDuration, err = meter.Float64Histogram(
		"dataset_load_duration_seconds",
		metric.WithDescription("Dataset load duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.DatasetRecords, err = meter.Int64Gauge(
		"dataset_records",
		metric.WithDescription("Records in the currently cached dataset"),
	); err != nil {
		return nil, err
	}

	if m.AnalysisRequests, err = meter.Int64Counter(
		"analysis_requests_total",
		metric.WithDescription("Analysis requests by kind and outcome"),
	); err != nil {
		return nil, err
	}

	if m.ExportBytes, err = meter.Int64Counter(
		"export_size",
		metric.WithDescription("Bytes produced by exports"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	if m.SessionMessages, err = meter.Int64Counter(
		"live_session_messages_total",
		metric.WithDescription("Live session messages by direction"),
	); err != nil {
		return nil, err
	}

	if m.ActiveSessions, err = meter.Int64UpDownCounter(
		"live_sessions_active",
		metric.WithDescription("Number of open live sessions"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func outcome(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("outcome", "failure")
	}
	return attribute.String("outcome", "success")
}

// RecordDatasetLoad records one load attempt of the named source kind
func (m *DashboardMetrics) RecordDatasetLoad(ctx context.Context, source string, duration time.Duration, records int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source), outcome(err))
	m.DatasetLoads.Add(ctx, 1, attrs)
	m.DatasetLoadDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil {
		m.DatasetRecords.Record(ctx, int64(records))
	}
}

// RecordAnalysis records one analysis request; empty marks a filter with no matches
func (m *DashboardMetrics) RecordAnalysis(ctx context.Context, kind string, empty bool, err error) {
	if m == nil {
		return
	}
	m.AnalysisRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("empty", empty),
		outcome(err),
	))
}

// RecordExport records the size of one export
func (m *DashboardMetrics) RecordExport(ctx context.Context, format string, size int) {
	if m == nil {
		return
	}
	m.ExportBytes.Add(ctx, int64(size), metric.WithAttributes(attribute.String("format", format)))
}

// RecordSessionMessage records a live session message, direction "in" or "out"
func (m *DashboardMetrics) RecordSessionMessage(ctx context.Context, direction, kind string) {
	if m == nil {
		return
	}
	m.SessionMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("type", kind),
	))
}

// RecordSessionChange adjusts the open session count by delta
func (m *DashboardMetrics) RecordSessionChange(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, delta)
}
