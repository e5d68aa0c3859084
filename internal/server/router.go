package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Control surface paths.
const (
	PathHome      = "/"
	PathEngage    = "/ledon"
	PathDisengage = "/ledoff"
	PathToggle    = "/ledtoggle"
	PathStatus    = "/status"
)

type route struct {
	path    string
	handler http.HandlerFunc
}

// routes is the complete control surface. Every entry is GET-only and
// matched exactly.
func (s *Server) routes() []route {
	return []route{
		{PathHome, s.handleHome},
		{PathEngage, s.handleEngage},
		{PathDisengage, s.handleDisengage},
		{PathToggle, s.handleToggle},
		{PathStatus, s.handleStatus},
	}
}

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metrics.middleware)

	for _, rt := range s.routes() {
		r.Get(rt.path, rt.handler)
	}

	// Unknown paths and wrong methods on known paths are both 404.
	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	return r
}
