package handlers

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faceforge/faceforge-api/internal/service"
)

// Stable error codes surfaced to clients alongside the HTTP status.
const (
	CodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	CodeRateLimited         = "RATE_LIMIT_EXCEEDED"
	CodeProviderError       = "PROVIDER_ERROR"
	CodeProcessingError     = "PROCESSING_ERROR"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
)

// codedError wraps a huma error with a machine-readable code in the details.
func codedError(status int, code, message string) error {
	return huma.NewError(status, message, &huma.ErrorDetail{
		Location: "code",
		Message:  code,
	})
}

// mapServiceError converts service-layer sentinels into HTTP errors. Unknown
// errors become opaque 500s; the cause is for the logs, not the client.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrInsufficientCredits):
		return codedError(http.StatusPaymentRequired, CodeInsufficientCredits, "insufficient credits")
	case errors.Is(err, service.ErrProvider):
		return codedError(http.StatusInternalServerError, CodeProviderError, "face swap processing failed")
	case errors.Is(err, service.ErrValidation):
		return codedError(http.StatusBadRequest, CodeValidationError, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return codedError(http.StatusNotFound, CodeNotFound, "not found")
	default:
		return codedError(http.StatusInternalServerError, CodeProcessingError, "internal error")
	}
}
