package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/jaybesin/logistics-console/internal/containers"
	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/documents"
	"github.com/jaybesin/logistics-console/internal/middleware"
	"github.com/jaybesin/logistics-console/internal/quote"
	"github.com/jaybesin/logistics-console/internal/workflow"
)

// maxBodyBytes leaves room for data-URL logos and product images.
const maxBodyBytes = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

// decodeJSON reads the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var ve *workflow.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, workflow.ErrUnknownEntity),
		errors.Is(err, workflow.ErrUnknownMode),
		errors.Is(err, workflow.ErrEmptyCart),
		errors.Is(err, quote.ErrInvalidDimensions):
		return http.StatusBadRequest
	case documents.IsStructural(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, db.ErrNotFound), errors.Is(err, containers.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrTrackingCollision), errors.Is(err, db.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, db.ErrWriteTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the mapped status. Server-side failures are logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"request_id": middleware.RequestIDFromContext(r.Context()),
			"path":       r.URL.Path,
			"status":     status,
		}).WithError(err).Error("Request failed")
	}
	http.Error(w, err.Error(), status)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
