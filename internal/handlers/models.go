package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dev.copilot.gateway/internal/copilot"
	"dev.copilot.gateway/internal/models"
)

// ModelsHandler serves the static model catalog.
type ModelsHandler struct {
	service *copilot.Service
}

// NewModelsHandler creates a new models handler.
func NewModelsHandler(service *copilot.Service) *ModelsHandler {
	return &ModelsHandler{service: service}
}

// ModelListResponse is the body returned by GET /api/models.
type ModelListResponse struct {
	Models  []models.ModelInfo `json:"models"`
	Default string             `json:"default"`
}

// Models handles GET /api/models.
func (h *ModelsHandler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, ModelListResponse{
		Models:  h.service.Models(),
		Default: h.service.DefaultModel(),
	})
}
