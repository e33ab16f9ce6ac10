package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dtindex/internal/services"
)

// MetricsHandler serves the Prometheus scrape endpoint and a JSON summary of
// the process for humans
type MetricsHandler struct {
	prometheus http.Handler
	health     *services.HealthService
}

// NewMetricsHandler creates a metrics handler; prometheus is nil when metrics
// are disabled and the scrape endpoint then answers 404
func NewMetricsHandler(prometheus http.Handler, health *services.HealthService) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, health: health}
}

func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	r.Get("/stats", h.GetStats)
	return r
}

// GetMetrics handles GET /metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		http.Error(w, "metrics disabled", http.StatusNotFound)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// GetStats handles GET /metrics/stats
func (h *MetricsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, statsResponse{Status: "success", Data: h.health.SystemStats(r.Context())})
}

type statsResponse struct {
	Status string               `json:"status"`
	Data   services.SystemStats `json:"data"`
}
