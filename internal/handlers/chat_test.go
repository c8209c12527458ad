package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.copilot.gateway/internal/copilot"
	"dev.copilot.gateway/internal/models"
	"dev.copilot.gateway/internal/observability/metrics"
)

func performChat(h *ChatHandler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/chat", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Chat(c)
	return w
}

// TestChatHandler_Chat_Success tests the full OpenAI-compatible response shape.
func TestChatHandler_Chat_Success(t *testing.T) {
	h, reg := newTestChatHandler(&stubRunner{})

	w := performChat(h, `{"messages":[{"role":"user","content":"say hello"}]}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, strings.HasPrefix(resp.ID, "copilot-copilot_workspace_"), "id %q", resp.ID)
	assert.Equal(t, models.ObjectChatCompletion, resp.Object)
	assert.NotZero(t, resp.Created)
	assert.Equal(t, "github-copilot-claude-sonnet-4", resp.Model)

	require.Len(t, resp.Choices, 1)
	assert.Equal(t, 0, resp.Choices[0].Index)
	assert.Equal(t, models.RoleAssistant, resp.Choices[0].Message.Role)
	assert.Equal(t, "Hello from Copilot", resp.Choices[0].Message.Content)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)

	// Prompt is "User: say hello", three whitespace-delimited words.
	assert.Equal(t, 3, resp.Usage.PromptTokens)
	assert.Equal(t, 3, resp.Usage.CompletionTokens)
	assert.Equal(t, 6, resp.Usage.TotalTokens)

	assert.Equal(t, "copilot-"+resp.WorkspaceID, resp.ID)
	assert.Equal(t, "copilot version 9.9.9", resp.CopilotMetadata.CLIVersion)
	assert.Equal(t, "claude-sonnet-4", resp.CopilotMetadata.Model)
	assert.True(t, resp.CopilotMetadata.WorkspaceUsed)

	// No files were produced, so the keys must be absent entirely.
	assert.NotContains(t, w.Body.String(), `"files"`)

	assert.Equal(t, float64(1), cliOutcomeCount(t, reg, "claude-sonnet-4", metrics.OutcomeOK))
}

// TestChatHandler_Chat_ExplicitModel tests that the requested model reaches
// the response metadata and metrics labels.
func TestChatHandler_Chat_ExplicitModel(t *testing.T) {
	h, reg := newTestChatHandler(&stubRunner{})

	w := performChat(h, `{"messages":[{"role":"user","content":"hi"}],"model":"gpt-5"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "github-copilot-gpt-5", resp.Model)
	assert.Equal(t, "gpt-5", resp.CopilotMetadata.Model)
	assert.Equal(t, float64(1), cliOutcomeCount(t, reg, "gpt-5", metrics.OutcomeOK))
}

// TestChatHandler_Chat_WithFiles tests that workspace output is attached
// base64-encoded with a matching count.
func TestChatHandler_Chat_WithFiles(t *testing.T) {
	runner := &stubRunner{
		onRun: func(dir string) {
			err := os.WriteFile(filepath.Join(dir, "hello.py"), []byte("print('hi')\n"), 0o644)
			require.NoError(t, err)
		},
	}
	h, _ := newTestChatHandler(runner)

	w := performChat(h, `{"messages":[{"role":"user","content":"write hello.py"}]}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.Files, 1)
	assert.Equal(t, 1, resp.FilesCount)

	file := resp.Files[0]
	assert.Equal(t, "hello.py", file.Path)
	assert.Equal(t, "hello.py", file.Name)
	assert.Equal(t, ".py", file.Extension)
	assert.Equal(t, "text/x-python", file.MimeType)
	assert.False(t, file.IsBinary)

	decoded, err := base64.StdEncoding.DecodeString(file.ContentBase64)
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", string(decoded))
}

// TestChatHandler_Chat_MissingMessages tests the empty-messages rejection.
func TestChatHandler_Chat_MissingMessages(t *testing.T) {
	h, _ := newTestChatHandler(&stubRunner{})

	for name, body := range map[string]string{
		"empty array": `{"messages":[]}`,
		"absent key":  `{"model":"gpt-5"}`,
	} {
		w := performChat(h, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)

		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), name)
		assert.Equal(t, "Messages are required", resp.Error, name)
	}
}

// TestChatHandler_Chat_InvalidJSON tests the malformed-body rejection.
func TestChatHandler_Chat_InvalidJSON(t *testing.T) {
	h, _ := newTestChatHandler(&stubRunner{})

	w := performChat(h, `{"messages":[{"role":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid JSON in request body", resp.Error)
	assert.NotEmpty(t, resp.Details)
}

// TestChatHandler_Chat_CLIMissing tests the 503 path when the binary is
// not installed.
func TestChatHandler_Chat_CLIMissing(t *testing.T) {
	h, reg := newTestChatHandler(&stubRunner{lookPathErr: errors.New("executable file not found in $PATH")})

	w := performChat(h, `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Copilot CLI is not available", resp.Error)
	assert.Contains(t, resp.Details, "copilot CLI not found")
	assert.Equal(t, float64(1), cliOutcomeCount(t, reg, "claude-sonnet-4", metrics.OutcomeNotFound))
}

// TestChatHandler_Chat_Timeout tests the 504 path.
func TestChatHandler_Chat_Timeout(t *testing.T) {
	h, reg := newTestChatHandler(&stubRunner{runErr: context.DeadlineExceeded})

	w := performChat(h, `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Copilot CLI timed out", resp.Error)
	assert.Contains(t, resp.Details, "timed out after")
	assert.Equal(t, float64(1), cliOutcomeCount(t, reg, "claude-sonnet-4", metrics.OutcomeTimeout))
}

// TestChatHandler_Chat_CLIFailure tests the 500 path on a non-zero exit.
func TestChatHandler_Chat_CLIFailure(t *testing.T) {
	h, reg := newTestChatHandler(&stubRunner{
		result: &copilot.CommandResult{ExitCode: 1, Stderr: "authentication failed"},
	})

	w := performChat(h, `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Internal server error", resp.Error)
	assert.Contains(t, resp.Details, "exited with code 1")
	assert.Contains(t, resp.Details, "authentication failed")
	assert.Equal(t, float64(1), cliOutcomeCount(t, reg, "claude-sonnet-4", metrics.OutcomeError))
}

// TestBuildChatResponse_EmptyFiles tests that a nil file list leaves the
// files fields zeroed.
func TestBuildChatResponse_EmptyFiles(t *testing.T) {
	comp := &copilot.Completion{
		Content:     "done",
		WorkspaceID: "copilot_workspace_ab12cd34",
		Model:       "gpt-5",
		CLIVersion:  "copilot version 1.0.0",
	}

	resp := buildChatResponse(comp)

	assert.Equal(t, "copilot-copilot_workspace_ab12cd34", resp.ID)
	assert.Nil(t, resp.Files)
	assert.Zero(t, resp.FilesCount)
}
