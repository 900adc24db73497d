package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventlottery/internal/domain"
)

// StatusFor maps a service error to its HTTP status and API error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, domain.ErrAlreadyJoined),
		errors.Is(err, domain.ErrInvitationNotPending),
		errors.Is(err, domain.ErrRegistrationNotActive),
		errors.Is(err, domain.ErrCapacityExceeded):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, domain.ErrRegistrationClosed),
		errors.Is(err, domain.ErrInsufficientPool):
		return http.StatusUnprocessableEntity, ErrCodeUnprocessable
	case errors.Is(err, domain.ErrOperationFailed),
		errors.Is(err, domain.ErrTransient):
		return http.StatusServiceUnavailable, ErrCodeUnavailable
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// WriteServiceError writes the envelope for err. Unexpected errors are logged and their
// message is not exposed.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := StatusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	WriteJSONError(w, status, code, msg)
}
