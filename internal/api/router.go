package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			s.protectedRoutes(r)
		})
	})

	return r
}

// protectedRoutes registers every route that sits behind authMiddleware.
func (s *Server) protectedRoutes(r chi.Router) {
	r.Get("/metrics", s.handleMetrics)
	r.Post("/auth/ws-ticket", s.handleWSTicket)

	r.Route("/panels", func(r chi.Router) {
		r.Get("/", s.handleListPanels)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetPanel)
			r.Post("/page", s.handleSetPage)
			r.Put("/brightness/{channel}", s.handleSetBrightness)
			r.Post("/buttons/{index}/{gesture}", s.handleInjectGesture)
			r.Post("/resync", s.handleResyncPanel)
		})
	})

	r.Route("/devices", func(r chi.Router) {
		r.Get("/", s.handleListDevices)
		r.Get("/{id}", s.handleGetDevice)
		r.Put("/{id}/capabilities/{name}", s.handleSetCapability)
	})

	r.Route("/configs", func(r chi.Router) {
		r.Get("/buttons", s.handleListButtonConfigs)
		r.Get("/buttons/{id}", s.handleGetButtonConfig)
		r.Put("/buttons/{id}", s.handlePutButtonConfig)
		r.Get("/displays", s.handleListDisplayConfigs)
		r.Get("/displays/{id}", s.handleGetDisplayConfig)
		r.Put("/displays/{id}", s.handlePutDisplayConfig)
	})
}

// handleHealth returns the server health status. Broker problems are
// reported as degraded rather than failing the request.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"version": s.version,
		"panels":  s.panels.Count(),
	}
	if s.brokers != nil {
		if err := s.brokers.HealthCheck(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["mqtt"] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
