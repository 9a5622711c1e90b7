package httpx

import (
	"errors"
	"net/http"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RespondError maps domain errors onto RFC7807 responses. Stock and reference
// conflicts map to 409 so callers can distinguish them from plain input errors.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInsufficientStock):
		Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	case errors.Is(err, shared.ErrNegativeStock):
		Problem(w, http.StatusConflict, "Negative Stock", err.Error())
	case errors.Is(err, shared.ErrReferencedEntity):
		Problem(w, http.StatusConflict, "Referenced Entity", err.Error())
	case errors.Is(err, shared.ErrNoRecipe):
		Problem(w, http.StatusUnprocessableEntity, "No Recipe", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
