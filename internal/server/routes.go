package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// setupRoutes configures the bridge's route surface. The document server only
// ever talks to these three routes; everything else is 404 plain text.
func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/file/{token}", s.serveFile)
	r.Post("/callback/{token}", s.receiveCallback)
	r.Get("/health", s.health)

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusNotFound, "Not Found")
}

// getToken extracts the session token route parameter.
func getToken(r *http.Request) string {
	return chi.URLParam(r, "token")
}
