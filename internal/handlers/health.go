package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dev.copilot.gateway/internal/copilot"
	"dev.copilot.gateway/internal/version"
)

// HealthHandler reports gateway and CLI health.
type HealthHandler struct {
	service *copilot.Service
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(service *copilot.Service) *HealthHandler {
	return &HealthHandler{service: service}
}

// HealthResponse is the body returned by GET /api/health.
type HealthResponse struct {
	Status    string                `json:"status"`
	Service   string                `json:"service"`
	Version   string                `json:"version"`
	Timestamp string                `json:"timestamp"`
	Copilot   *copilot.HealthStatus `json:"copilot"`
}

// Health handles GET /api/health. The endpoint is unauthenticated so
// orchestrators can probe it; it answers 503 while the CLI is unusable.
func (h *HealthHandler) Health(c *gin.Context) {
	status := h.service.Health(c.Request.Context())

	resp := HealthResponse{
		Status:    "healthy",
		Service:   "github-copilot-api",
		Version:   version.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Copilot:   status,
	}
	code := http.StatusOK
	if !status.Available {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, resp)
}
