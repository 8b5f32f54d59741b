package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/conneroisu/time-mcp/internal/config"
	"github.com/conneroisu/time-mcp/internal/errors"
	"github.com/conneroisu/time-mcp/internal/version"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status          string `json:"status"`
	DefaultTimezone string `json:"default_timezone"`
	Time            string `json:"time"`
	Version         string `json:"version"`
	Uptime          string `json:"uptime"`
	ActiveStreams   int64  `json:"active_streams"`
}

// ErrorResponse is the body of a rejected HTTP request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handler returns the HTTP routes served in streamable-http mode.
func (s *Server) Handler() http.Handler {
	cfg := s.Config()

	s.serverMutex.Lock()
	if s.streamable == nil {
		s.streamable = mcpserver.NewStreamableHTTPServer(s.mcp,
			mcpserver.WithEndpointPath(cfg.Server.Endpoint),
		)
	}
	streamable := s.streamable
	s.serverMutex.Unlock()

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.Endpoint, streamable)
	mux.HandleFunc(config.HealthPath, s.handleHealth)
	mux.HandleFunc(config.VersionPath, s.handleVersion)
	mux.HandleFunc(config.TimeStreamPath, s.handleTimeStream)

	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	provider := s.holder.Load()
	health := HealthResponse{
		Status:          "ok",
		DefaultTimezone: provider.DefaultTimezone(),
		Version:         version.GetShortVersion(),
		Uptime:          time.Since(s.started).Round(time.Second).String(),
		ActiveStreams:   s.streams.Load(),
	}

	snap, err := provider.CurrentTime("", "")
	if err != nil {
		s.logger.Error(r.Context(), err, "Health check could not read the default timezone")
		health.Status = "degraded"
		s.writeJSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	health.Time = snap.ISOTime

	s.writeJSON(w, r, http.StatusOK, health)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, r, http.StatusOK, version.GetBuildInfo())
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.writeJSON(w, r, status, ErrorResponse{
		Error: err.Error(),
		Code:  errors.Code(err),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to encode response", "path", r.URL.Path)
	}
}
