package handlers

import (
	"errors"
	"net/http"

	"github.com/spassist/sp-assistant/services"
	"github.com/spassist/sp-assistant/services/providers"
	"github.com/spassist/sp-assistant/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	switch {
	case services.IsNotFoundError(err):
		if err := utils.WriteNotFound(w, err.Error()); err != nil {
			logger.Error("failed to write not found response", zap.Error(err))
		}

	case services.IsValidationError(err):
		if err := utils.WriteBadRequest(w, err.Error(), details); err != nil {
			logger.Error("failed to write bad request response", zap.Error(err))
		}

	case services.IsIngestionError(err):
		// The run stopped partway; already-inserted batches remain until the
		// next ingestion of the same document replaces them.
		logger.Error("ingestion failed", zap.Error(err))
		if err := utils.WriteInternalServerError(w, err.Error()); err != nil {
			logger.Error("failed to write ingestion error response", zap.Error(err))
		}

	case services.IsExternalError(err):
		// Provider failures relay the upstream status verbatim when one is
		// available; failures without a status surface as 502.
		status := http.StatusBadGateway
		var providerErr *providers.ProviderError
		if errors.As(err, &providerErr) {
			if details == nil {
				details = make(map[string]interface{})
			}
			details["provider"] = providerErr.Provider
			details["upstream_status"] = providerErr.StatusCode
			details["upstream_message"] = providerErr.Message
			if providerErr.StatusCode >= http.StatusBadRequest {
				status = providerErr.StatusCode
			}
		}
		if err := utils.WriteError(w, status, err.Error(), details); err != nil {
			logger.Error("failed to write provider error response", zap.Error(err))
		}

	case services.IsInternalError(err):
		// Log internal errors but return generic message
		logger.Error("internal server error", zap.Error(err))
		if err := utils.WriteInternalServerError(w, "An internal error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		if err := utils.WriteInternalServerError(w, "An unexpected error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
