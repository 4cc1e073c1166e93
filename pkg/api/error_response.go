package api

import (
	"encoding/json"
	"net/http"

	"github.com/adfharrison1/go-docbatch/pkg/batch"
)

// ErrorResponse is the JSON error envelope returned by all handlers
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSONError writes a JSON error response with the given status code
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// writeRunnerError maps executor errors onto status codes: configuration
// errors are the caller's fault, everything else is a server-side query
// or channel failure
func writeRunnerError(w http.ResponseWriter, err error) {
	if batch.IsConfigError(err) {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSONError(w, http.StatusInternalServerError, err.Error())
}
