package handlers

import (
	"net/http"
	"time"
)

// Health reports liveness and the configured store backend.
func Health(driver string, started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"status":  "ok",
			"store":   driver,
			"uptime":  time.Since(started).Round(time.Second).String(),
		})
	}
}
