package api

import (
	"net/http"
	"time"

	"github.com/quinnmay/mem0hook/internal/api/respond"
	"github.com/quinnmay/mem0hook/internal/health"
)

// HealthHandler reports liveness and upstream connectivity.
type HealthHandler struct {
	checker *health.StoreHealthChecker
}

func NewHealthHandler(checker *health.StoreHealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

type healthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Mem0Connected bool   `json:"mem0_connected"`
	WebhookReady  bool   `json:"webhook_ready"`
	Message       string `json:"message,omitempty"`
}

// CheckHealth handles GET /health. The relay itself is always ready; a lost
// upstream degrades the report but keeps the process serving, so a degraded
// relay still accepts webhooks and surfaces forwarding failures per request.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	connected := h.checker.IsHealthy()
	resp := healthResponse{
		Status:        "healthy",
		Timestamp:     time.Now().Format(time.RFC3339),
		Mem0Connected: connected,
		WebhookReady:  true,
	}
	if !connected {
		resp.Status = "degraded"
		resp.Message = h.checker.LastError()
	}
	respond.WriteJSON(w, http.StatusOK, resp)
}
