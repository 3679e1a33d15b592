package console

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	// Unauthenticated: health and token minting.
	r.Get("/health", s.handleHealth)
	r.Post("/auth/token", s.handleToken)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/help", s.handleHelp)
		r.Get("/status", s.handleStatus)
		r.Get("/stats", s.handleStats)
		r.Get("/memory", s.handleMemory)
		r.Get("/network/scan", s.handleNetworkScan)
		r.Post("/restart", s.handleRestart)
		r.Post("/reset", s.handleReset)
		r.Post("/capture/test", s.handleTestCapture)
		r.Post("/send", s.handleSend)
		r.Post("/provisioning/start", s.handleProvisioningStart)
		r.Post("/provisioning/stop", s.handleProvisioningStop)
	})

	// WebSocket event stream; authenticates inside the handler so tokens
	// can arrive as a query parameter.
	r.Get(s.cfg.WebSocket.Path, s.handleWebSocket)

	return r
}
