package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// lockTokenHeader carries the lock token on mutating requests.
const lockTokenHeader = "X-Lock-Token"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	if s.collector != nil && s.metrics.Enabled {
		path := s.metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, s.collector.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/about", s.handleAbout)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/audit", s.handleListAudit)
		r.Get(s.wsPath(), s.handleWebSocket)

		r.Route("/entities", func(r chi.Router) {
			r.Get("/", s.handleListEntities)

			r.Route("/{entity}", func(r chi.Router) {
				r.Get("/", s.handleGetEntity)

				r.Get("/data", s.handleListData)
				r.Get("/data/{name}", s.handleReadData)
				r.Put("/data/{name}", s.handleWriteData)
				r.Patch("/data/{name}", s.handleWriteData)

				r.Get("/faults", s.handleListFaults)
				r.Delete("/faults", s.handleClearFaults)

				r.Get("/locks", s.handleGetLock)
				r.Post("/locks", s.handleAcquireLock)
				r.Delete("/locks", s.handleReleaseLock)

				r.Get("/operations", s.handleListOperations)
				r.Post("/operations/{name}", s.handleStartOperation)

				r.Get("/modes", s.handleGetMode)
				r.Put("/modes", s.handleSetMode)
			})
		})

		r.Route("/operations/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetOperation)
			r.Delete("/", s.handleStopOperation)
		})
	})

	return r
}

// wsPath is the WebSocket endpoint relative to /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}
