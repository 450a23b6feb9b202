// Package server provides the HTTP server of repcoach: the JSON API, the
// annotated video stream, live updates over WebSocket and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/rep"
	"github.com/ayusman/repcoach/internal/server/api"
)

// Config holds the server configuration. Routes whose collaborator is nil
// are not registered.
type Config struct {
	StaticDir string
	App       *app.App
	// DefaultPlan fills fields missing from a start request.
	DefaultPlan rep.Plan
	History     api.History
	Settings    api.SettingsStore
	Hub         *Hub
	Metrics     *metrics.Manager
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// Server represents the HTTP server for the repcoach application.
type Server struct {
	config Config
	router chi.Router
	start  time.Time
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Metrics == nil {
		config.Metrics = metrics.NewTestManager()
	}
	if config.Hub == nil {
		config.Hub = NewHub(config.Metrics)
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
	}
	s.routes()
	return s
}

// Hub returns the WebSocket hub live updates are broadcast on.
func (s *Server) Hub() *Hub {
	return s.config.Hub
}

func (s *Server) routes() {
	s.router.Use(PanicRecovery())
	s.router.Use(RequestLogging())
	s.router.Use(RequestMetrics(s.config.Metrics))

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/exercises", api.Exercises)
	s.router.Get("/api/ws", s.config.Hub.ServeHTTP)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))

	if a := s.config.App; a != nil {
		a.OnResult(s.config.Hub.PublishResult)

		workouts := api.NewWorkoutHandler(a, s.config.DefaultPlan)
		s.router.Route("/api/workout", func(r chi.Router) {
			r.Post("/", workouts.Start)
			r.Get("/", workouts.Get)
			r.Delete("/", workouts.Stop)
		})
		s.router.Get("/api/stream", NewStreamHandler(a).ServeHTTP)

		voice := api.NewVoiceHandler(a.Announcer(), s.config.Settings)
		s.router.Get("/api/voices", voice.Voices)
		s.router.Get("/api/settings/voice", voice.GetSettings)
		s.router.Put("/api/settings/voice", voice.PutSettings)
	}

	if s.config.History != nil {
		s.router.Get("/api/logs", api.NewHistoryHandler(s.config.History).List)
	}

	if s.config.StaticDir != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["workout_running"] = s.config.App.Running()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Infof("server: listening on %s", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes WebSocket clients and gracefully stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.config.Hub.Close()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
