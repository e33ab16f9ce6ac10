package http

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"dtindex/internal/config"
	apierrors "dtindex/internal/errors"
	"dtindex/internal/exporter"
	customMiddleware "dtindex/internal/middleware"
	"dtindex/internal/services"
)

// ChecksumHeader carries the checksum of the dataset a response was computed from
const ChecksumHeader = "X-Dataset-Checksum"

// DashboardHandler serves the dashboard API with RFC 7807 errors
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/dataset", h.GetDataset)
		r.Get("/entities", h.GetEntities)
		r.Get("/entities/{id}/overview", h.GetOverview)
		r.Get("/years", h.GetYears)
		r.Get("/records", h.GetRecords)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/describe", h.GetDescribe)
			r.Get("/trend", h.GetTrend)
			r.Get("/correlation", h.GetCorrelation)
		})

		r.Get("/forecast", h.GetForecast)
		r.Get("/compare", h.GetCompare)
	})

	r.With(customMiddleware.AuditLog(h.logger)).Get("/export/{format}", h.Export)

	return r
}

// GetDataset handles GET /api/dataset
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.fail(w, r, "failed to get dataset info", err)
		return
	}

	w.Header().Set(ChecksumHeader, info.Source.Checksum)
	h.success(w, r, info)
}

// GetEntities handles GET /api/entities
func (h *DashboardHandler) GetEntities(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.Entities(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list entities", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   options,
		"count":  len(options),
	})
}

// GetYears handles GET /api/years
func (h *DashboardHandler) GetYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.Years(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list years", err)
		return
	}
	h.success(w, r, years)
}

// GetOverview handles GET /api/entities/{id}/overview
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("entity", chi.URLParam(r, "id"))

	spec, err := parseFilter(q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	highlight, err := parseIntList(q, "highlight")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	overview, err := h.service.Overview(r.Context(), spec, highlight)
	if err != nil {
		h.fail(w, r, "failed to build overview", err)
		return
	}
	h.success(w, r, overview)
}

// GetRecords handles GET /api/records
func (h *DashboardHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.Records(r.Context(), spec)
	if err != nil {
		h.fail(w, r, "failed to filter records", err)
		return
	}

	w.Header().Set(ChecksumHeader, view.Source.Checksum)
	render.JSON(w, r, map[string]interface{}{
		"status":     "success",
		"dimensions": view.Dimensions,
		"data":       view.Records,
		"count":      view.Len(),
	})
}

// GetDescribe handles GET /api/stats/describe
func (h *DashboardHandler) GetDescribe(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := parseFilter(q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	stats, err := h.service.Describe(r.Context(), spec, parseList(q, "dims"))
	if err != nil {
		h.fail(w, r, "failed to describe view", err)
		return
	}
	h.success(w, r, stats)
}

// GetTrend handles GET /api/stats/trend
func (h *DashboardHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := parseFilter(q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	trends, err := h.service.Trend(r.Context(), spec, parseList(q, "dims"))
	if err != nil {
		h.fail(w, r, "failed to fit trends", err)
		return
	}
	h.success(w, r, trends)
}

// GetCorrelation handles GET /api/stats/correlation
func (h *DashboardHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := parseFilter(q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	matrix, err := h.service.Correlation(r.Context(), spec, parseList(q, "dims"))
	if err != nil {
		h.fail(w, r, "failed to correlate dimensions", err)
		return
	}
	h.success(w, r, matrix)
}

// GetForecast handles GET /api/forecast
func (h *DashboardHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := parseFilter(q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	horizon, err := parseBoundedInt(q, "horizon",
		config.MinForecastHorizon, config.MaxForecastHorizon, config.DefaultForecastHorizon)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Forecast(r.Context(), spec, q.Get("dim"), horizon)
	if err != nil {
		h.fail(w, r, "failed to forecast", err)
		return
	}
	h.success(w, r, result)
}

// GetCompare handles GET /api/compare
func (h *DashboardHandler) GetCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := parseOptionalInt(q, "from")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	to, err := parseOptionalInt(q, "to")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	table, err := h.service.Compare(r.Context(), parseIDs(q), q.Get("dim"), from, to)
	if err != nil {
		h.fail(w, r, "failed to compare companies", err)
		return
	}
	h.success(w, r, table)
}

// Export handles GET /api/export/{format} and streams the file as an attachment
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("format", err))
		return
	}

	spec, err := parseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Export(r.Context(), spec, format)
	if err != nil {
		h.fail(w, r, "failed to export view", err)
		return
	}

	h.logger.InfoContext(r.Context(), "serving export",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("filename", result.Filename),
		slog.Int("records", result.Records),
		slog.Int("bytes", len(result.Data)))

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (h *DashboardHandler) success(w http.ResponseWriter, r *http.Request, data interface{}) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

// fail renders an empty view as a 200 notice and everything else as a problem
func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var empty *apierrors.EmptyResultWarning
	if errors.As(err, &empty) {
		h.logger.DebugContext(r.Context(), "empty result",
			slog.String("path", r.URL.Path),
			slog.String("notice", empty.Notice))
		render.JSON(w, r, map[string]interface{}{
			"status": "empty",
			"notice": empty.Notice,
		})
		return
	}

	h.logger.WarnContext(r.Context(), msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())))
	h.errorHandler.HandleError(w, r, mapServiceError(err))
}

// mapServiceError translates service sentinels to API errors; anything else
// (load failures, API errors, context errors) is passed through unchanged
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrEntityRequired):
		return apierrors.MissingParameter("entity")
	case errors.Is(err, services.ErrEntityNotFound):
		return apierrors.EntityNotFound(err)
	case errors.Is(err, services.ErrInsufficientData):
		return apierrors.InsufficientData(err)
	case errors.Is(err, services.ErrUnknownDimension):
		return apierrors.InvalidParameter("dim", err)
	case errors.Is(err, services.ErrInvalidHorizon):
		return apierrors.InvalidParameter("horizon", err)
	case errors.Is(err, services.ErrTooManyEntities), errors.Is(err, services.ErrNoEntities):
		return apierrors.InvalidParameter("ids", err)
	case errors.Is(err, exporter.ErrUnsupportedFormat):
		return apierrors.InvalidParameter("format", err)
	}
	return err
}
