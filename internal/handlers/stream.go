package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dev.copilot.gateway/internal/copilot"
	"dev.copilot.gateway/internal/models"
	"dev.copilot.gateway/internal/observability/metrics"
)

// streamHeartbeatInterval is how often a keepalive comment is written
// while the CLI is still running.
const streamHeartbeatInterval = 15 * time.Second

type completionResult struct {
	comp *copilot.Completion
	err  error
}

// Stream handles POST /api/stream. The CLI does not stream natively, so
// the full completion is produced first, with keepalive comments holding
// the connection open, and then replayed word by word as
// chat.completion.chunk events followed by a files chunk and [DONE].
func (h *ChatHandler) Stream(c *gin.Context) {
	req, ok := h.bindChatRequest(c)
	if !ok {
		return
	}

	model := req.Model
	if model == "" {
		model = h.service.DefaultModel()
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.logger.Error("Streaming not supported by response writer")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Streaming not supported"})
		return
	}

	ctx := c.Request.Context()
	resultCh := make(chan completionResult, 1)
	start := time.Now()
	go func() {
		comp, err := h.service.Complete(ctx, req.Messages, model)
		resultCh <- completionResult{comp: comp, err: err}
	}()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	// Nothing is written until the CLI finishes or the first heartbeat
	// fires, so early failures can still use real HTTP status codes.
	started := false
	var res completionResult
WaitLoop:
	for {
		select {
		case res = <-resultCh:
			break WaitLoop
		case <-heartbeat.C:
			if !started {
				writeSSEHeaders(c)
				started = true
			}
			c.Writer.Write([]byte(": processing\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}

	elapsed := time.Since(start)
	if res.err != nil {
		status, body, outcome := errorStatus(res.err)
		h.metrics.ObserveCLI(model, outcome, elapsed)
		h.logger.WithError(res.err).WithField("model", model).Error("Streaming completion failed")
		if !started {
			c.JSON(status, body)
			return
		}
		h.writeEvent(c, flusher, body)
		writeDone(c, flusher)
		return
	}

	h.metrics.ObserveCLI(model, metrics.OutcomeOK, elapsed)
	h.metrics.AddWorkspaceFiles(len(res.comp.Files))

	if !started {
		writeSSEHeaders(c)
	}
	h.streamCompletion(c, flusher, res.comp)
}

// streamCompletion replays a finished completion as SSE chunks. Every
// word except the last keeps its trailing space; the final chunk carries
// finish_reason "stop".
func (h *ChatHandler) streamCompletion(c *gin.Context, flusher http.Flusher, comp *copilot.Completion) {
	id := "copilot-" + comp.WorkspaceID
	words := strings.Split(comp.Content, " ")
	for i, word := range words {
		last := i == len(words)-1
		content := word
		if !last {
			content += " "
		}
		choice := models.StreamChoice{Index: 0, Delta: models.Delta{Content: content}}
		if last {
			reason := "stop"
			choice.FinishReason = &reason
		}
		chunk := models.StreamChunk{
			ID:      id,
			Object:  models.ObjectChatCompletionChunk,
			Choices: []models.StreamChoice{choice},
		}
		if !h.writeEvent(c, flusher, chunk) {
			return
		}
	}

	if len(comp.Files) > 0 {
		filesChunk := models.FilesChunk{
			ID:         id,
			Object:     models.ObjectChatCompletionFiles,
			Files:      comp.Files,
			FilesCount: len(comp.Files),
		}
		if !h.writeEvent(c, flusher, filesChunk) {
			return
		}
	}

	writeDone(c, flusher)
}

// writeSSEHeaders sets the event-stream response headers. Headers go out
// with the first write, so this must run before any event is emitted.
func writeSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// writeEvent marshals payload and writes a single data: event. Returns
// false when the client is gone or the payload cannot be serialized.
func (h *ChatHandler) writeEvent(c *gin.Context, flusher http.Flusher, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).Error("Marshaling stream event failed")
		return false
	}
	if _, err := c.Writer.Write([]byte("data: ")); err != nil {
		return false
	}
	if _, err := c.Writer.Write(data); err != nil {
		return false
	}
	if _, err := c.Writer.Write([]byte("\n\n")); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

func writeDone(c *gin.Context, flusher http.Flusher) {
	c.Writer.Write([]byte("data: [DONE]\n\n"))
	flusher.Flush()
}
