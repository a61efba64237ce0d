package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mtarnawa/signalgate/internal/api/handlers"
	"github.com/mtarnawa/signalgate/internal/realtime"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(signalHandler *handlers.SignalHandler, weightsHandler *handlers.WeightsHandler, hub *realtime.Hub, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Signal endpoints
	api.HandleFunc("/signals/{id:[0-9]+}/evaluate", signalHandler.Evaluate).Methods("POST")
	api.HandleFunc("/signals/{id:[0-9]+}/score", signalHandler.Score).Methods("POST")
	api.HandleFunc("/signals/{id:[0-9]+}/score", signalHandler.GetScore).Methods("GET")
	api.HandleFunc("/signals/{id:[0-9]+}/evaluation", signalHandler.GetEvaluation).Methods("GET")
	api.HandleFunc("/signals/rescore", signalHandler.Rescore).Methods("POST")

	// Weight endpoints
	api.HandleFunc("/weights", weightsHandler.List).Methods("GET")
	api.HandleFunc("/weights/active", weightsHandler.Active).Methods("GET")
	api.HandleFunc("/weights/optimize", weightsHandler.Optimize).Methods("POST")
	api.HandleFunc("/weights/{version}/activate", weightsHandler.Activate).Methods("POST")

	// Evaluation stream
	if hub != nil {
		r.HandleFunc("/ws/evaluations", hub.ServeWS)
	}

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "signalgate-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
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
