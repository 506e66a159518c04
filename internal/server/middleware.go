package server

import (
	"net/http"
	"time"

	"culld/internal/log"
)

// statusRecorder remembers the status code a handler wrote so the request
// log can include it.
type statusRecorder struct {
	http.ResponseWriter
	Status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger logs one line per request with method, path, status, and
// duration.
func requestLogger(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		handler.ServeHTTP(rec, r)
		log.LogWithFields(
			log.F("status", rec.Status),
			log.F("method", r.Method),
			log.F("path", r.URL.Path),
			log.F("duration_ms", time.Since(start).Milliseconds()),
		).Debug("request handled")
	})
}
