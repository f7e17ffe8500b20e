package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/pennyscan/internal/api/handlers"
	"github.com/wonny/pennyscan/pkg/logger"
)

// RequestRecorder receives one observation per served request
type RequestRecorder interface {
	RecordHTTPRequest(route, method string, status int, duration time.Duration)
}

// NewRouter creates and configures the HTTP router. metricsHandler and recorder may be nil.
// ⭐ SSOT: routes are only registered here
func NewRouter(scanHandler *handlers.ScanHandler, metricsHandler http.Handler, recorder RequestRecorder, log *logger.Logger) http.Handler {
	log = log.Component("http")
	r := mux.NewRouter()

	r.HandleFunc("/", scanHandler.Root).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/scan", scanHandler.Scan).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/health", scanHandler.Health).Methods(http.MethodGet)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	r.Use(loggingMiddleware(log, recorder))
	r.Use(recoveryMiddleware(log))

	return r
}

// statusWriter captures the status code written by a handler
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests and records their metrics
func loggingMiddleware(log *logger.Logger, recorder RequestRecorder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			duration := time.Since(start)
			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			if recorder != nil {
				recorder.RecordHTTPRequest(route, r.Method, sw.status, duration)
			}

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   sw.status,
				"duration": duration,
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
