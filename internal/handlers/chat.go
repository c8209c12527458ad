package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dev.copilot.gateway/internal/copilot"
	"dev.copilot.gateway/internal/models"
	"dev.copilot.gateway/internal/observability/metrics"
)

// ChatHandler serves the chat endpoints backed by the Copilot CLI.
type ChatHandler struct {
	service *copilot.Service
	metrics *metrics.Collector
	logger  *logrus.Logger

	// heartbeat is the interval between SSE keepalive comments while
	// the CLI is still running. Overridable in tests.
	heartbeat time.Duration
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(service *copilot.Service, collector *metrics.Collector, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		service:   service,
		metrics:   collector,
		logger:    logger,
		heartbeat: streamHeartbeatInterval,
	}
}

// Chat handles POST /api/chat. It runs the Copilot CLI once and returns
// the whole completion as an OpenAI-style chat.completion object.
func (h *ChatHandler) Chat(c *gin.Context) {
	req, ok := h.bindChatRequest(c)
	if !ok {
		return
	}

	model := req.Model
	if model == "" {
		model = h.service.DefaultModel()
	}

	start := time.Now()
	comp, err := h.service.Complete(c.Request.Context(), req.Messages, model)
	if err != nil {
		status, body, outcome := errorStatus(err)
		h.metrics.ObserveCLI(model, outcome, time.Since(start))
		h.logger.WithError(err).WithField("model", model).Error("Chat completion failed")
		c.JSON(status, body)
		return
	}

	h.metrics.ObserveCLI(model, metrics.OutcomeOK, time.Since(start))
	h.metrics.AddWorkspaceFiles(len(comp.Files))
	c.JSON(http.StatusOK, buildChatResponse(comp))
}

// bindChatRequest parses and validates the request body. The validation
// middleware already enforces this on the wired routes; repeating it here
// keeps the handlers safe when mounted standalone.
func (h *ChatHandler) bindChatRequest(c *gin.Context) (models.ChatRequest, bool) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid JSON in request body",
			Details: err.Error(),
		})
		return req, false
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Messages are required"})
		return req, false
	}
	return req, true
}

// buildChatResponse converts a CLI completion into the OpenAI-compatible
// wire shape. The files keys are omitted entirely when the workspace
// produced nothing.
func buildChatResponse(comp *copilot.Completion) models.ChatResponse {
	resp := models.ChatResponse{
		ID:      "copilot-" + comp.WorkspaceID,
		Object:  models.ObjectChatCompletion,
		Created: time.Now().Unix(),
		Model:   "github-copilot-" + comp.Model,
		Choices: []models.Choice{
			{
				Index:        0,
				Message:      models.ChatMessage{Role: models.RoleAssistant, Content: comp.Content},
				FinishReason: "stop",
			},
		},
		Usage:       comp.Usage,
		WorkspaceID: comp.WorkspaceID,
		CopilotMetadata: models.CopilotMetadata{
			CLIVersion:    comp.CLIVersion,
			Model:         comp.Model,
			WorkspaceUsed: true,
		},
	}
	if len(comp.Files) > 0 {
		resp.Files = comp.Files
		resp.FilesCount = len(comp.Files)
	}
	return resp
}
