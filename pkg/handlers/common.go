package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kacperjurak/thinfilm"
)

// maxBodyBytes bounds request bodies; a design is a few hundred bytes.
const maxBodyBytes = 1 << 20

// setupCORS sets up CORS headers
func setupCORS(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// preflight answers OPTIONS and rejects methods other than allowed. It
// reports whether the handler should go on.
func preflight(w http.ResponseWriter, r *http.Request, allowed string) bool {
	setupCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return false
	}
	if r.Method != allowed {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// decodeJSON decodes the body over dst, so fields absent from the body keep
// the values already in dst. An empty body is accepted.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError writes an error response
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeEngineError maps evaluation errors to a status; the message is passed through.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, "request cancelled", http.StatusServiceUnavailable)
	case errors.Is(err, thinfilm.ErrParse),
		errors.Is(err, thinfilm.ErrInvalidRange),
		errors.Is(err, thinfilm.ErrInvalidMaterial),
		errors.Is(err, thinfilm.ErrDesignAngleInfeasible),
		errors.Is(err, thinfilm.ErrCriticalAngleAtDesign):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
