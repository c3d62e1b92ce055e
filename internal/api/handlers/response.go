package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hirescope/hirescope/internal/api/response"
	"github.com/hirescope/hirescope/internal/api/validation"
	"github.com/hirescope/hirescope/internal/apperrors"
)

// respondServiceError maps a service error to a problem response.
// External failures become 502 with their kind; anything unrecognized is a logged 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		response.RespondBadRequest(w, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		response.RespondNotFound(w, err.Error())
	case errors.Is(err, apperrors.ErrLimitExceeded):
		response.RespondRequestEntityTooLarge(w, err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		response.RespondConflict(w, err.Error())
	default:
		if kind := apperrors.KindOf(err); kind != "" {
			slog.ErrorContext(r.Context(), "upstream call failed", "error_kind", kind, "error", err)
			response.RespondBadGateway(w, string(kind), string(kind)+" failed")

			return
		}

		slog.ErrorContext(r.Context(), "request failed", "error", err)
		response.RespondInternalServerError(w, "An unexpected error occurred")
	}
}

// respondDecodeError answers a body that failed to decode or validate.
func respondDecodeError(w http.ResponseWriter, err error) {
	var fieldErrs *validation.FieldErrors
	if errors.As(err, &fieldErrs) {
		validation.RespondValidationError(w, err)
		return
	}

	response.RespondBadRequest(w, "Invalid request body")
}
