package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the standard response shape of the portal APIs: a status
// string, a human-readable message, machine-readable error kinds, and an
// optional data payload.
type Envelope struct {
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Data    any      `json:"data,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope.
func WriteSuccess(w http.ResponseWriter, code int, message string, data any) {
	WriteJSON(w, code, Envelope{Status: "success", Message: message, Data: data})
}

// WriteError writes an error envelope with one or more error kinds.
func WriteError(w http.ResponseWriter, code int, message string, kinds ...string) {
	WriteJSON(w, code, Envelope{Status: "error", Message: message, Errors: kinds})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
