package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/muurk/apled/internal/actuator"
	"github.com/muurk/apled/internal/logging"
	"github.com/muurk/apled/internal/metrics"
	"go.uber.org/zap"
)

// Config holds the server configuration
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MetricsListen   string // Prometheus listener address (empty = disabled)
}

// Server serves the control surface for one actuator.
type Server struct {
	config  *Config
	state   *actuator.State
	source  metrics.Source
	handler http.Handler
	metrics *httpMetrics

	httpServer    *http.Server
	listener      net.Listener
	metricsServer *http.Server
	metricsLn     net.Listener
}

// New builds the routing table for state and src. Routes are fixed from
// here on; nothing is listening until Listen is called.
func New(config *Config, state *actuator.State, src metrics.Source) *Server {
	s := &Server{
		config:  config,
		state:   state,
		source:  src,
		metrics: newHTTPMetrics(prometheus.NewRegistry(), state),
	}
	s.metrics.countChanges(state)
	s.handler = s.buildRouter()
	return s
}

// Handler returns the routed control surface. Tests drive it directly.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Listen binds the control listener (and the metrics listener when
// configured). Bind errors are returned before any request can arrive.
func (s *Server) Listen() (net.Addr, error) {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	if s.config.MetricsListen != "" {
		mln, err := net.Listen("tcp", s.config.MetricsListen)
		if err != nil {
			_ = ln.Close()
			return nil, fmt.Errorf("failed to listen on metrics address %s: %w", s.config.MetricsListen, err)
		}
		s.metricsLn = mln
		s.metricsServer = &http.Server{
			Handler:     s.metrics.handler(),
			ReadTimeout: s.config.ReadTimeout,
		}
	}

	logging.Info("Server listening for connections",
		zap.String("addr", ln.Addr().String()),
		zap.String("metrics_addr", s.config.MetricsListen),
	)
	return ln.Addr(), nil
}

// Serve blocks serving requests until Shutdown is called or a listener
// fails. Listen must have been called first.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}

	errChan := make(chan error, 2)
	go func() {
		errChan <- serveUntilClosed(s.httpServer, s.listener)
	}()
	if s.metricsServer != nil {
		go func() {
			errChan <- serveUntilClosed(s.metricsServer, s.metricsLn)
		}()
	}

	return <-errChan
}

func serveUntilClosed(srv *http.Server, ln net.Listener) error {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by ctx and the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	var errs []error
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server: %w", err))
		}
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
			_ = s.httpServer.Close()
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}

	if len(errs) == 0 {
		logging.Info("All connections closed gracefully")
	}
	return errors.Join(errs...)
}
