package http

import (
	"errors"
	"net/http"

	"haulbook/internal/core"
	"haulbook/internal/log"
)

// writeError maps err onto a status code and JSON error body. label names the
// resource in not-found messages, e.g. "Trip not found".
func writeError(w http.ResponseWriter, r *http.Request, err error, label string) {
	var reqErr *requestError
	var valErr *core.ValidationError
	switch {
	case errors.As(err, &reqErr):
		BadRequestError(reqErr.msg).Write(w)
	case errors.As(err, &valErr):
		BadRequestError(valErr.Error()).Write(w)
	case errors.Is(err, core.ErrInvalid):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError(label + " not found").Write(w)
	case errors.Is(err, core.ErrConflict):
		ConflictError(err.Error()).Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldOperation, r.Pattern)
		InternalServerError().Write(w)
	}
}
