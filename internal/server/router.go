package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HealthService is probed by the health endpoint.
type HealthService interface {
	Ping(ctx context.Context) error
}

// NewRouter wires the HTTP routes exposed by the backend API.
func NewRouter(h *Handlers, health HealthService, baseLogger *zerolog.Logger) http.Handler {
	log := baseLogger.With().Str("component", "router").Logger()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := map[string]any{"status": "ok"}

		if health != nil {
			if err := health.Ping(ctx); err != nil {
				log.Error().Err(err).Msg("Health probe failed")
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
			}
		}

		respondJSON(w, status, payload)
	})

	mux.HandleFunc("POST /api/sign-up", h.handleSignUp)
	mux.HandleFunc("POST /api/sign-in", h.handleSignIn)
	mux.HandleFunc("POST /api/logout", h.handleLogout)
	mux.HandleFunc("GET /api/me", h.handleMe)
	mux.HandleFunc("POST /api/link-token", h.handleLinkToken)
	mux.HandleFunc("POST /api/exchange-public-token", h.handleExchange)
	mux.HandleFunc("GET /api/banks", h.handleBanks)
	mux.HandleFunc("GET /api/banks/{id}", h.handleBank)

	return loggingMiddleware(log, mux)
}

func loggingMiddleware(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("Request completed")
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
