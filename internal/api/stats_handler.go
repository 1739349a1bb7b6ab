package api

import (
	"net/http"

	"github.com/alexivanou/foodmap-api/internal/stats"
	"go.uber.org/zap"
)

// StatsHandler handles statistics requests
type StatsHandler struct {
	collector *stats.Collector
	logger    *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(collector *stats.Collector, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{collector: collector, logger: logger}
}

// GetStats handles GET /api/stats[?format=yaml]
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	contentType := "application/json; charset=utf-8"
	switch format {
	case "", "json":
	case "yaml":
		contentType = "application/yaml; charset=utf-8"
	default:
		http.Error(w, "unsupported format", http.StatusBadRequest)
		return
	}

	s, err := h.collector.Collect(r.Context())
	if err != nil {
		h.logger.Error("Error collecting statistics", zap.Error(err))
		http.Error(w, "failed to collect statistics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if err := stats.Encode(w, s, format); err != nil {
		h.logger.Error("Error encoding statistics", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
}
