package main

import (
	"encoding/json"
	"net/http"

	"wabridge/internal/metrics"
)

func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := metrics.GetAllMetrics()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(snapshot); err != nil {
			s.logger.WithError(err).Error("Failed to encode metrics")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}
