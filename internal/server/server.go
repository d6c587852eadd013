// Package server provides the local bridging HTTP server that mediates
// between the IDE and the external document server.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/docbridge/docbridge/internal/event"
	"github.com/docbridge/docbridge/internal/logging"
	"github.com/docbridge/docbridge/internal/registry"
)

// Config holds server configuration.
type Config struct {
	// PublicHost overrides host-IP auto-detection for advertised URLs.
	PublicHost string
	// ReadTimeout bounds request header/body reads. No write timeout: file
	// downloads to a slow document server may take arbitrarily long.
	ReadTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		ReadTimeout: 30 * time.Second,
	}
}

// Server is the bridging HTTP server. One instance serves all open documents;
// Start is idempotent and Stop tears down all session state with it.
//
// The server binds an ephemeral port on all interfaces because the document
// server may run in an isolated network namespace (a container) that cannot
// reach loopback. Advertised URLs therefore use a host-reachable address.
type Server struct {
	config   *Config
	router   *chi.Mux
	registry *registry.Registry
	bus      *event.Bus

	mu       sync.Mutex
	listener net.Listener
	httpSrv  *http.Server
	port     int
	host     string
}

// New creates a new Server instance. The bus receives lifecycle events; it may
// be shared with the session controller.
func New(cfg *Config, bus *event.Bus) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		bus:    bus,
	}
	s.registry = registry.New(s.BaseURL)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	// Request ID
	s.router.Use(middleware.RequestID)

	// Recover from panics
	s.router.Use(middleware.Recoverer)

	// CORS: the calling origin is the document server's own web UI, so every
	// response carries permissive headers.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	// Some document server builds probe with bare OPTIONS requests that carry
	// no preflight headers. The CORS middleware only terminates true
	// preflights, so answer the rest here rather than 404.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
}

// Start binds an ephemeral port on all interfaces and begins serving.
// It is idempotent: if the server is already running, the bound port is
// returned without rebinding. A bind failure is returned to the caller and
// leaves the server fully stopped.
func (s *Server) Start(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.port, nil
	}

	listener, err := net.Listen("tcp", "0.0.0.0:0")
	if err != nil {
		return 0, fmt.Errorf("bind bridge server: %w", err)
	}

	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.host = s.config.PublicHost
	if s.host == "" {
		s.host = DetectHostIP()
	}

	s.httpSrv = &http.Server{
		Handler:     s.router,
		ReadTimeout: s.config.ReadTimeout,
	}

	go func(srv *http.Server, l net.Listener) {
		if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
			logging.Error().Err(err).Msg("bridge server terminated")
		}
	}(s.httpSrv, listener)

	logging.Info().Int("port", s.port).Str("host", s.host).Msg("bridge server started")
	if s.bus != nil {
		s.bus.Publish(event.Event{
			Type: event.ServerStarted,
			Data: event.ServerStartedData{Port: s.port, Host: s.host},
		})
	}

	return s.port, nil
}

// Stop closes the listening socket, clears the token registry, and resets the
// recorded port. Safe to call when not started.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	err := s.httpSrv.Close()
	s.listener = nil
	s.httpSrv = nil
	s.port = 0
	s.host = ""
	s.registry.Clear()

	logging.Info().Msg("bridge server stopped")
	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.ServerStopped})
	}

	return err
}

// Running reports whether the server is currently bound and serving.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}

// Port returns the bound port, or 0 when stopped.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// BaseURL returns the host-reachable base URL advertised to the document
// server, e.g. "http://192.168.1.20:34721". Empty when stopped.
func (s *Server) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", s.host, s.port)
}

// Registry returns the token registry backing this server.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
