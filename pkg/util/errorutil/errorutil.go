package errorutil

import (
	"errors"
	"net/http"

	"github.com/spec-kit/ticket-exchange/internal/domain"
)

// HTTPError is the transport-facing shape of any failure.
type HTTPError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Status  int            `json:"-"`
}

// ToHTTPError converts engine and generic errors into the response shape.
// Engine error kinds map onto statuses; anything untyped is an internal error.
func ToHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var engineErr *domain.Error
	if errors.As(err, &engineErr) {
		return &HTTPError{
			Code:    string(engineErr.Kind),
			Message: engineErr.Message,
			Details: engineErr.Details,
			Status:  statusOf(engineErr.Kind),
		}
	}
	return &HTTPError{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
	}
}

func statusOf(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindStateConflict:
		return http.StatusConflict
	case domain.KindResource:
		return http.StatusPaymentRequired
	case domain.KindBounds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
