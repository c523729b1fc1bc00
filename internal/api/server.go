// Package api hosts timing sessions over HTTP with server-sent event streams.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"setpace/internal/log"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes a Registry over HTTP.
type Server struct {
	registry *Registry
	router   chi.Router
	logger   zerolog.Logger
}

// NewServer builds the router. rateLimit is requests per minute per client IP;
// zero disables limiting.
func NewServer(registry *Registry, rateLimit int) *Server {
	server := &Server{
		registry: registry,
		logger:   log.WithComponent("api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(server.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		if rateLimit > 0 {
			r.Use(rateLimiter(rateLimit, time.Minute))
		}

		r.Post("/rest", startRest(registry))
		r.Route("/rest/{id}", func(r chi.Router) {
			r.Get("/", getRest(registry))
			r.Post("/pause", controlRest(registry, restPause))
			r.Post("/resume", controlRest(registry, restResume))
			r.Post("/cancel", controlRest(registry, restCancel))
			r.Post("/add", adjustRest(registry, restAdd))
			r.Post("/skip", adjustRest(registry, restSkip))
			r.Get("/events", streamRest(registry))
		})

		r.Get("/tempo/parse", parseTempo(registry))
		r.Post("/tempo", startTempo(registry))
		r.Route("/tempo/{id}", func(r chi.Router) {
			r.Get("/", getTempo(registry))
			r.Post("/pause", controlTempo(registry, tempoPause))
			r.Post("/resume", controlTempo(registry, tempoResume))
			r.Post("/stop", controlTempo(registry, tempoStop))
			r.Post("/next", controlTempo(registry, tempoNext))
			r.Post("/rep", skipTempoRep(registry))
			r.Get("/events", streamTempo(registry))
		})
	})

	server.router = r
	return server
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(started)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

func rateLimiter(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			respondError(w, "rate limit exceeded", http.StatusTooManyRequests)
		}),
	)
}

// decodeBody reads an optional JSON body. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger := log.WithComponent("api")
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}

func respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrSessionNotFound) {
		respondError(w, err.Error(), http.StatusNotFound)
		return
	}
	respondError(w, err.Error(), http.StatusInternalServerError)
}
