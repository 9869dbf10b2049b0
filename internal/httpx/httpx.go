// Package httpx holds the small JSON response helpers shared by handlers
// and middleware.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/safesite/service-compliance-core/internal/apperror"
)

// ErrorResponse is the body shape for all error replies.
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err through the apperror taxonomy and writes the JSON
// error body. Unexpected errors surface as an opaque 500.
func WriteError(w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)
	WriteJSON(w, kind.HTTPStatus(), ErrorResponse{Error: apperror.MessageOf(err)})
}
