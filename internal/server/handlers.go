package server

import (
	"net/http"
	"strconv"

	"github.com/muurk/apled/internal/logging"
	"github.com/muurk/apled/internal/metrics"
	"github.com/muurk/apled/internal/render"
	"go.uber.org/zap"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
)

// handleHome shows the current state and the control links.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	body, err := render.Home(s.state.Engaged())
	s.respond(w, r, http.StatusOK, contentTypeHTML, body, err)
}

// handleEngage forces the actuator on.
func (s *Server) handleEngage(w http.ResponseWriter, r *http.Request) {
	engaged := s.state.Set(true)
	body, err := render.Confirmation(render.LabelEngaged, engaged)
	s.respond(w, r, http.StatusOK, contentTypeHTML, body, err)
}

// handleDisengage forces the actuator off.
func (s *Server) handleDisengage(w http.ResponseWriter, r *http.Request) {
	engaged := s.state.Set(false)
	body, err := render.Confirmation(render.LabelDisengaged, engaged)
	s.respond(w, r, http.StatusOK, contentTypeHTML, body, err)
}

// handleToggle flips the actuator and reports the value it flipped to.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	engaged := s.state.Toggle()
	body, err := render.Confirmation(render.LabelToggled, engaged)
	s.respond(w, r, http.StatusOK, contentTypeHTML, body, err)
}

// handleStatus serves the JSON status document with fresh metrics.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	engaged := s.state.Engaged()
	body, err := render.Status(engaged, metrics.Take(s.source))
	s.respond(w, r, http.StatusOK, contentTypeJSON, body, err)
}

// handleNotFound is the fallback for every unmatched method and path.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	body, err := render.NotFound(r.Method, r.URL.Path)
	s.respond(w, r, http.StatusNotFound, contentTypeHTML, body, err)
}

// respond sends a fully rendered body. A render error becomes a 500; a
// write error is logged and left to the transport. Neither touches state.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, contentType string, body []byte, renderErr error) {
	if renderErr != nil {
		logging.Error("Failed to render response",
			zap.String("path", r.URL.Path),
			zap.Error(renderErr),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if _, err := w.Write(body); err != nil {
		logging.Warn("Failed to send response",
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}
