package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthHandler reports process liveness for deployment probes.
type HealthHandler struct {
	startedAt time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

// Get handles GET /api/health.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"uptimeSeconds": int(time.Since(h.startedAt).Seconds()),
	})
}
