package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	RequestIDContextKey contextKey = "request_id"
	RequestIDHeader                = "X-Request-ID"
)

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// RequestLogger tags each request with an id and logs it once it completes.
// An incoming X-Request-ID is kept.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(rec, r.WithContext(ctx))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		entry := log.WithFields(log.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"bytes":      rec.bytes,
			"duration":   time.Since(start).String(),
			"client_ip":  getClientIP(r),
		})
		switch {
		case rec.status >= 500:
			entry.Error("request failed")
		case rec.status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	})
}

// Recover turns a handler panic into a 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				log.WithFields(log.Fields{
					"request_id": RequestIDFromContext(r.Context()),
					"path":       r.URL.Path,
					"panic":      p,
				}).Error("handler panicked")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestIDFromContext returns the id set by RequestLogger, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}
