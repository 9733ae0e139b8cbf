package server

import (
	"net/http"

	"meal-planner/internal/metrics"
)

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status string            `json:"status"`
	System metrics.SysHealth `json:"system"`
}

// HandleHealthz reports liveness along with process and data-dir stats.
func HandleHealthz(dataDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", System: metrics.GetSysHealth(dataDir)})
	}
}
