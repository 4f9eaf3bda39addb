package httpx

import (
	"errors"
	"net/http"

	"github.com/lokapasar/lokapasar/internal/shared"
)

// RespondError maps classified domain errors to RFC7807 responses.
// Unclassified errors become opaque 500s so internals never leak.
func RespondError(w http.ResponseWriter, err error) {
	switch shared.KindOf(err) {
	case shared.KindAuthentication:
		ProblemCode(w, http.StatusUnauthorized, "Unauthorized", err.Error(), shared.CodeOf(err))
	case shared.KindAuthorization:
		ProblemCode(w, http.StatusForbidden, "Forbidden", err.Error(), shared.CodeOf(err))
	case shared.KindValidation:
		ProblemCode(w, http.StatusBadRequest, "Bad Request", err.Error(), shared.CodeOf(err))
	case shared.KindConflict:
		ProblemCode(w, http.StatusConflict, "Conflict", err.Error(), shared.CodeOf(err))
	case shared.KindNotFound:
		ProblemCode(w, http.StatusNotFound, "Not Found", err.Error(), shared.CodeOf(err))
	case shared.KindTransaction:
		// Rolled back completely; safe for the caller to retry.
		ProblemCode(w, http.StatusInternalServerError, "Transaction Failed", "operation rolled back, retry is safe", shared.CodeOf(err))
	default:
		if errors.Is(err, shared.ErrNotFound) {
			Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
