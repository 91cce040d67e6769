package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// RespondJSON writes payload as JSON with status.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// RespondError writes {"error": message}.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

// DecodeJSON reads a JSON body into dst, answering 400 on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		slog.Debug("rejecting request body", "path", r.URL.Path, "error", err)
		RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
