package handlers

import (
	"encoding/json"
	"net/http"

	"content-orchestrator/core/monitoring"
)

// DashboardHandler handles dashboard and metrics requests
type DashboardHandler struct {
	collector *monitoring.Collector
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(collector *monitoring.Collector) *DashboardHandler {
	return &DashboardHandler{collector: collector}
}

// GetStats handles GET /v1/dashboard/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.collector.Collect(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// GetMetrics handles GET /metrics in Prometheus text format
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	stats := h.collector.Collect(r.Context())

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(monitoring.PrometheusMetrics(stats)))
}
