// Package api implements the HTTP surface the cameras and the viewer talk
// to: camera registration, event lifecycle, log ingest/query, health, and
// read-only statistics.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sentrygrid/camcoord/internal/config"
	"github.com/sentrygrid/camcoord/internal/log"
	"github.com/sentrygrid/camcoord/internal/store"
)

// Server wires the Store and live configuration into chi's router. It
// holds no other mutable state; every request reads the Store directly, so
// Server is safe to share across the listener's handler goroutines.
type Server struct {
	Store   *store.Store
	Config  *config.Holder
	Logger  zerolog.Logger
	handler http.Handler
}

// New builds a Server and assembles its middleware chain and route table.
func New(st *store.Store, cfg *config.Holder) *Server {
	s := &Server{
		Store:  st,
		Config: cfg,
		Logger: log.WithComponent("api"),
	}
	s.handler = s.routes()
	return s
}

// ServeHTTP makes Server itself usable as the listener's root handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(panicRecoveryMiddleware)
	r.Use(log.Middleware())
	r.Use(metricsMiddleware)
	r.Use(corsFor(s.Config.Get().HTTP.AllowedOrigins))
	r.Use(securityHeaders)
	r.Use(httprate.LimitByIP(120, time.Minute))

	r.Get("/healthz", s.handleLiveness)
	r.Get("/readyz", s.handleReadiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/cameras", func(r chi.Router) {
			r.Post("/", s.handleRegisterCamera)
			r.Get("/", s.handleListCameras)
			r.Get("/{stableString}", s.handleGetCamera)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", s.handleCreateEvent)
			r.Get("/", s.handleListEvents)
			r.Get("/{id}", s.handleGetEvent)
			r.Get("/{id}/neighbors", s.handleEventNeighbors)
			r.Patch("/{id}/file-status", s.handleUpdateFileStatus)
			r.Patch("/{id}/status", s.handleUpdateEventStatus)
		})

		r.Route("/logs", func(r chi.Router) {
			r.Post("/", s.handleIngestLogs)
			r.Get("/", s.handleQueryLogs)
			r.Get("/since/{id}", s.handleQueryLogsSinceID)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/cameras", s.handleCameraStats)
			r.Get("/status", s.handleStatusStats)
			r.Get("/daily", s.handleDailyStats)
		})
	})

	return r
}
