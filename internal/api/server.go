package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
)

// Server is the HTTP control plane plus the websocket hub.
type Server struct {
	hub         *Hub
	router      *chi.Mux
	rateLimiter *IPRateLimiter
	logger      *log.Logger
	httpServer  *http.Server
}

// ServerConfig wires a Server.
type ServerConfig struct {
	World       WorldInterface
	Commands    Commands
	CORSOrigins []string
	Auth        *AdminAuth
	Logger      *log.Logger
}

// NewServer builds the router and hub. Nothing runs until Start.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		hub:         NewHub(cfg.Commands, cfg.CORSOrigins, logger),
		rateLimiter: NewIPRateLimiter(DefaultRateLimitConfig),
		logger:      logger.WithPrefix("http"),
	}
	s.router = NewRouter(RouterConfig{
		World:       cfg.World,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
		Auth:        cfg.Auth,
		WebSocket:   s.hub,
	})
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Hub returns the websocket hub, which is the tick publisher for clients.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the hub and serves addr until Shutdown. It returns nil after a
// clean shutdown, including one that lands before the listener is up.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	s.logger.Info("listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and releases the rate limiter. It may
// be called at any time after NewServer, concurrently with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.httpServer.Shutdown(ctx)
}
