package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/onnwee/ticker-proxy/internal/governor"
)

var startTime = time.Now()

// Health returns a simple JSON payload to indicate the API is alive.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// GetStatus handles GET /status: uptime plus a per-namespace snapshot of
// cache occupancy and window usage.
func GetStatus(gov *governor.Governor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":         "ok",
			"uptime_seconds": int64(time.Since(startTime).Seconds()),
			"namespaces":     gov.Stats(),
		})
	}
}
