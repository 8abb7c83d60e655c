// Package api provides the HTTP server for PlanCoach: streak, challenge,
// achievement, and notification endpoints for the local client.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plancoach/plancoach/internal/app/engagement"
	"github.com/plancoach/plancoach/internal/health"
)

// Version is the reported server version.
const Version = "0.1.0"

// Server is the PlanCoach HTTP API server.
type Server struct {
	engine         *engagement.Engine
	checker        *health.Checker
	metricsEnabled bool
}

// NewServer creates a new API server around the engagement engine.
func NewServer(engine *engagement.Engine, checker *health.Checker) *Server {
	return &Server{engine: engine, checker: checker}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "PlanCoach is running"})
		})
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": Version})
		})

		r.Post("/activity", s.handleRecordActivity)

		r.Route("/streak", func(r chi.Router) {
			r.Get("/", s.handleStreak)
			r.Post("/freeze", s.handleFreeze)
		})

		r.Get("/stats/today", s.handleTodayStats)
		r.Get("/stats/week", s.handleWeekStats)
		r.Get("/calendar", s.handleCalendar)

		r.Route("/challenges", func(r chi.Router) {
			r.Get("/", s.handleListChallenges)
			r.Post("/", s.handleCreateChallenge)
			r.Get("/templates", s.handleTemplates)
			r.Get("/history", s.handleChallengeHistory)
			r.Get("/stats", s.handleChallengeStats)
			r.Get("/today", s.handleTodayProgress)
			r.Patch("/{id}", s.handleUpdateChallenge)
			r.Delete("/{id}", s.handleDeleteChallenge)
			r.Post("/{id}/progress", s.handleProgress)
			r.Post("/{id}/checkin", s.handleCheckin)
		})

		r.Get("/achievements", s.handleAchievements)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.handleNotifications)
			r.Post("/{id}/shown", s.handleNotificationShown)
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for the local web client.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
