package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/rakhabima/Boros-Lu-Miskin/internal/errors"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/httputil"
)

const maxRequestBody = 1 << 20

// decodeJSON parses a request body into dst. A missing body is reported
// as a validation failure, not an internal error.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil {
		return apperrors.ValidationError("Invalid request body").WithCause(err)
	}
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.WriteError(w, r, err)
}
