package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error payload shape shared with the Pediaê frontend:
// a stable machine-readable code plus optional provider details.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code string, details any) {
	JSON(w, status, ErrorBody{Error: code, Details: details})
}
