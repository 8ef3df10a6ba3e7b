package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chat-relay/observability"
)

// StatsSource provides a point-in-time activity snapshot.
type StatsSource interface {
	Stats() observability.Stats
}

// NewStatsHandler serves the relay's activity counters as JSON.
func NewStatsHandler(source StatsSource, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(source.Stats()); err != nil {
			log.Error("Stats encoding failed", "error", err)
		}
	}
}
