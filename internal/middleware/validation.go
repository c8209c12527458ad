package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dev.copilot.gateway/internal/models"
)

var validRoles = map[string]bool{
	"system":    true,
	"user":      true,
	"assistant": true,
	"function":  true,
	"tool":      true,
}

// RequireJSON rejects request bodies that are not declared as JSON.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		ct := c.ContentType()
		if !strings.HasPrefix(ct, "application/json") {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, models.ErrorResponse{
				Error:   "Unsupported content type",
				Details: fmt.Sprintf("expected application/json, got %q", ct),
			})
			return
		}
		c.Next()
	}
}

// MaxBodySize rejects oversized requests up front via Content-Length and
// caps reads for chunked bodies that carry none.
func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Error: "Request body too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// ValidateChatRequest parses and validates the chat request body, then
// restores it so the handler can bind it again.
func ValidateChatRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid JSON in request body",
				Details: "failed to read request body",
			})
			return
		}

		var req models.ChatRequest
		if err := json.Unmarshal(bodyBytes, &req); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError

			details := "malformed JSON"
			if errors.As(err, &syntaxErr) {
				details = fmt.Sprintf("syntax error at offset %d", syntaxErr.Offset)
			} else if errors.As(err, &typeErr) {
				details = fmt.Sprintf("invalid type for field %q", typeErr.Field)
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid JSON in request body",
				Details: details,
			})
			return
		}

		if len(req.Messages) == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "Messages are required",
			})
			return
		}

		for i, msg := range req.Messages {
			if !validRoles[msg.Role] {
				c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
					Error:   "Invalid message role",
					Details: fmt.Sprintf("messages[%d] has unsupported role %q", i, msg.Role),
				})
				return
			}
		}

		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		c.Next()
	}
}
