package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Device endpoints
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Post("/", s.handleCreateDevice)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Patch("/", s.handleUpdateDevice)
					r.Delete("/", s.handleDeleteDevice)

					// Command dispatch
					r.Post("/send", s.handleSendCommand)
					r.Post("/test", s.handleTestCommand)
					r.Get("/commands", s.handleListCommands)

					// Learning sessions
					r.Route("/learn", func(r chi.Router) {
						r.Post("/", s.handleStartLearning)
						r.Get("/", s.handleLearningStatus)
					})

					// Library export/import/clear
					r.Get("/export", s.handleExport)
					r.Post("/import", s.handleImport)
					r.Delete("/commands", s.handleClearLibrary)
				})
			})

			// Session endpoints (addressed by session id)
			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleSessionStatus)
				r.Delete("/", s.handleCancelLearning)
				r.Post("/save", s.handleSaveLearned)
				r.Post("/discard", s.handleDiscardSession)
			})
		})

		// WebSocket (auth via token query parameter, validated in handler)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
