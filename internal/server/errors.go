package server

import (
	"encoding/json"
	"log"
	"net/http"
)

// apiError is the JSON body returned on failures
type apiError struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// errorResponse writes a JSON error with the given status code
func errorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Error: message})
}
