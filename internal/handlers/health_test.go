package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.copilot.gateway/internal/config"
	"dev.copilot.gateway/internal/copilot"
	"dev.copilot.gateway/internal/version"
	"dev.copilot.gateway/internal/workspace"
)

func performHealth(h *HealthHandler) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/health", nil)
	h.Health(c)
	return w
}

// TestHealthHandler_Healthy tests the 200 shape when the CLI is usable.
func TestHealthHandler_Healthy(t *testing.T) {
	h := NewHealthHandler(newTestService(&stubRunner{}))

	w := performHealth(h)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "github-copilot-api", resp.Service)
	assert.Equal(t, version.Version, resp.Version)

	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)

	require.NotNil(t, resp.Copilot)
	assert.True(t, resp.Copilot.Available)
	assert.Empty(t, resp.Copilot.Error)
	assert.Equal(t, "copilot version 9.9.9", resp.Copilot.Version)
	assert.True(t, resp.Copilot.HasToken)
	assert.Equal(t, "claude-sonnet-4", resp.Copilot.DefaultModel)
}

// TestHealthHandler_DegradedBinaryMissing tests the 503 shape when the CLI
// binary cannot be found.
func TestHealthHandler_DegradedBinaryMissing(t *testing.T) {
	h := NewHealthHandler(newTestService(&stubRunner{lookPathErr: errors.New("not installed")}))

	w := performHealth(h)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "degraded", resp.Status)
	require.NotNil(t, resp.Copilot)
	assert.False(t, resp.Copilot.Available)
	assert.Contains(t, resp.Copilot.Error, "copilot CLI not found")
	assert.True(t, resp.Copilot.HasToken)
}

// TestHealthHandler_DegradedNoToken tests the 503 shape when no GitHub
// token is configured.
func TestHealthHandler_DegradedNoToken(t *testing.T) {
	log := testLogger()
	cfg := config.CopilotConfig{
		CLIPath:      "copilot",
		DefaultModel: "claude-sonnet-4",
		Timeout:      5 * time.Second,
	}
	svc := copilot.NewService(cfg, workspace.NewManager(1<<20, log), &stubRunner{}, log)
	h := NewHealthHandler(svc)

	w := performHealth(h)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "degraded", resp.Status)
	assert.False(t, resp.Copilot.Available)
	assert.False(t, resp.Copilot.HasToken)
	assert.Contains(t, resp.Copilot.Error, "no GitHub token configured")
	assert.Equal(t, "copilot version 9.9.9", resp.Copilot.Version)
}
