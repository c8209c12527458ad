package handlers

import (
	"errors"
	"net/http"

	"dev.copilot.gateway/internal/copilot"
	"dev.copilot.gateway/internal/models"
	"dev.copilot.gateway/internal/observability/metrics"
)

// errorStatus maps a completion error to an HTTP status, a wire body and
// a metrics outcome label. A missing CLI binary is a deployment problem
// (503), a timeout is the upstream being slow (504), everything else is
// a plain 500.
func errorStatus(err error) (int, models.ErrorResponse, string) {
	switch {
	case errors.Is(err, copilot.ErrCLINotFound):
		return http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "Copilot CLI is not available",
			Details: err.Error(),
		}, metrics.OutcomeNotFound
	case errors.Is(err, copilot.ErrCLITimeout):
		return http.StatusGatewayTimeout, models.ErrorResponse{
			Error:   "Copilot CLI timed out",
			Details: err.Error(),
		}, metrics.OutcomeTimeout
	default:
		return http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Internal server error",
			Details: err.Error(),
		}, metrics.OutcomeError
	}
}
