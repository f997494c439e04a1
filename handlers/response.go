package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ruby-kim/gov-status/internal/config"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string, details map[string]interface{}) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, ErrorResponse{Error: message, Details: details})
}

func setCachePolicy(w http.ResponseWriter, policy config.EndpointPolicy) {
	w.Header().Set("Cache-Control", policy.CacheControl())
	w.Header().Set("Vary", "Accept-Encoding")
}
