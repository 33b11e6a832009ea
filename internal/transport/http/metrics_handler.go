package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	ws "labourpulse/internal/websocket"
)

// MetricsHandler exposes JSON runtime metrics alongside the Prometheus
// scrape endpoint the app mounts at /metrics.
type MetricsHandler struct {
	hub *ws.Hub
}

// NewMetricsHandler creates a new metrics handler. hub may be nil when
// the websocket layer is disabled.
func NewMetricsHandler(hub *ws.Hub) *MetricsHandler {
	return &MetricsHandler{hub: hub}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/websocket", h.GetWebSocketMetrics)
	return r
}

// GetWebSocketMetrics returns hub and connection statistics
func (h *MetricsHandler) GetWebSocketMetrics(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"stream":    ws.GetMetrics().GetSnapshot(),
	}
	if h.hub != nil {
		response["hub"] = h.hub.GetHubMetrics()
	}
	render.JSON(w, r, response)
}
