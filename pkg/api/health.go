package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the health endpoint payload
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Stats     map[string]interface{} `json:"stats,omitempty"`
}

// HandleHealth handles GET requests for service health, including the
// engine's memory and cache statistics
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if h.admin != nil {
		response.Stats = h.admin.GetMemoryStats()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
