package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/shutdown"
)

type Server struct {
	logger       *slog.Logger
	port         string
	handler      http.Handler
	tlsConfig    *tls.Config
	writeTimeout time.Duration
	server       *http.Server
	addr       atomic.Value
	ready      chan struct{}
	inShutdown atomic.Bool
}

// WriteTimeout returns a write deadline that outlasts one fan-out request:
// pod discovery followed by the slowest scrape. Responses are committed with
// the first pod payload, so a shorter deadline would truncate a 200.
func WriteTimeout(discovery, scrape time.Duration) time.Duration {
	return max(defaultWriteTimeout, discovery+scrape+writeTimeoutMargin)
}

// New creates the gateway HTTP server. A nil tlsConfig serves plain http,
// a non-positive writeTimeout selects the default.
func New(
	logger *slog.Logger,
	port string,
	handler http.Handler,
	tlsConfig *tls.Config,
	writeTimeout time.Duration,
) *Server {
	if port == "" {
		port = defaultPort
	}

	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	return &Server{
		logger:       logger,
		port:         port,
		handler:      handler,
		tlsConfig:    tlsConfig,
		writeTimeout: writeTimeout,
		ready:        make(chan struct{}),
	}
}

var _ shutdown.Shutdowner = (*Server)(nil)

// Name returns the name of the server component
func (s *Server) Name() string {
	return "http-server"
}

// Ping returns nil once the server accepts connections.
func (s *Server) Ping(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
		return nil
	default:
		return fmt.Errorf("http server is not ready")
	}
}

// Start binds the port and serves in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "http server is shutting down, skipping start")

		return nil
	}

	addr := ":" + s.port
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		TLSConfig:         s.tlsConfig,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	lc := &net.ListenConfig{
		KeepAliveConfig: net.KeepAliveConfig{
			Enable: true,
		},
	}

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen http tcp: %w", err)
	}

	s.addr.Store(listener.Addr().String())

	s.logger.InfoContext(ctx, "http server listening",
		"addr", listener.Addr().String(),
		"tls", s.tlsConfig != nil,
	)

	go func() {
		close(s.ready)

		var serveErr error
		if s.tlsConfig != nil {
			serveErr = s.server.ServeTLS(listener, "", "")
		} else {
			serveErr = s.server.Serve(listener)
		}

		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.ErrorContext(ctx, "http server error", "reason", serveErr)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	addr, _ := s.addr.Load().(string)

	return addr
}

// Ready returns a channel that is closed when the HTTP server is ready to serve requests
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.InfoContext(ctx, "shutting down http server")

	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.logger.InfoContext(ctx, "http server closed properly")

	return nil
}
