// Package server hosts the time tools over the MCP stdio and streamable
// HTTP transports. In HTTP mode it also serves health and version
// endpoints and a websocket stream of time snapshots.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/conneroisu/time-mcp/internal/config"
	"github.com/conneroisu/time-mcp/internal/errors"
	"github.com/conneroisu/time-mcp/internal/logging"
	"github.com/conneroisu/time-mcp/internal/tools"
	"github.com/conneroisu/time-mcp/internal/version"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server owns the MCP server and, in HTTP mode, the listener around it.
type Server struct {
	config   atomic.Pointer[config.Config]
	holder   *tools.Holder
	mcp      *mcpserver.MCPServer
	logger   logging.Logger
	started  time.Time
	streams  atomic.Int64
	shutdown chan struct{}

	httpServer   *http.Server
	streamable   *mcpserver.StreamableHTTPServer
	serverMutex  sync.RWMutex
	shutdownOnce sync.Once
}

// New creates a server for cfg. The holder's provider must already reflect
// cfg's default timezone.
func New(cfg *config.Config, holder *tools.Holder, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithComponent("server")

	registry := tools.NewRegistry(holder, logger)

	s := &Server{
		holder:   holder,
		mcp:      tools.NewServer(version.Name, version.GetVersion(), registry),
		logger:   logger,
		started:  time.Now(),
		shutdown: make(chan struct{}),
	}
	s.config.Store(cfg)

	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

// Config returns the active configuration.
func (s *Server) Config() *config.Config {
	return s.config.Load()
}

// Reload builds a provider from cfg and swaps it in. Calls already running
// finish against the previous provider.
func (s *Server) Reload(cfg *config.Config) error {
	provider, err := cfg.NewProvider()
	if err != nil {
		return errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "reloading configuration")
	}

	previous := s.holder.Swap(provider)
	s.config.Store(cfg)

	if previous == nil || previous.DefaultTimezone() != provider.DefaultTimezone() {
		s.logger.Info(context.Background(), "Default timezone changed",
			"timezone", provider.DefaultTimezone())
	}

	return nil
}

// Run serves the configured transport until ctx is cancelled or, for
// stdio, the input stream ends.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	switch transport := s.Config().Server.Transport; transport {
	case config.TransportStdio:
		return s.ServeStdio(ctx, in, out)
	case config.TransportStreamableHTTP:
		return s.ListenAndServe(ctx)
	default:
		return errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("unsupported transport %q", transport))
	}
}

// ServeStdio speaks newline-delimited JSON-RPC on in and out. Nothing else
// is written to out.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(s.mcp)
	if sl, ok := s.logger.(interface{ Slog() *slog.Logger }); ok {
		stdio.SetErrorLogger(slog.NewLogLogger(sl.Slog().Handler(), slog.LevelError))
	}

	s.logger.Info(ctx, "Serving MCP over stdio",
		"default_timezone", s.holder.Load().DefaultTimezone())

	err := stdio.Listen(ctx, in, out)
	if err != nil && ctx.Err() == nil {
		return errors.WrapNetwork(err, errors.ErrCodeTransport, "stdio transport")
	}

	return nil
}

// ListenAndServe listens on the configured address and serves HTTP until
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	cfg := s.Config()

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return errors.WrapNetwork(err, errors.ErrCodeTransport,
			fmt.Sprintf("listening on %s", cfg.Addr())).
			WithContext("port", cfg.Server.Port)
	}

	return s.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	handler := s.Handler()

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Serving MCP over streamable HTTP",
		"addr", ln.Addr().String(),
		"endpoint", s.Config().Server.Endpoint,
		"default_timezone", s.holder.Load().DefaultTimezone())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.WrapNetwork(err, errors.ErrCodeTransport, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return errors.WrapNetwork(err, errors.ErrCodeTransport, "http server")
	}

	return nil
}

// Shutdown closes open streams and stops the HTTP server. It is safe to
// call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server", "active_streams", s.streams.Load())
		close(s.shutdown)

		s.serverMutex.RLock()
		server := s.httpServer
		streamable := s.streamable
		s.serverMutex.RUnlock()

		if streamable != nil {
			if err := streamable.Shutdown(ctx); err != nil {
				s.logger.Warn(ctx, err, "MCP transport shutdown failed")
			}
		}

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}
