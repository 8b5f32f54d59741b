package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/conneroisu/time-mcp/internal/config"
	"github.com/conneroisu/time-mcp/internal/errors"
	"github.com/conneroisu/time-mcp/internal/timeinfo"
)

// Time allowed to write a message to the peer.
const writeWait = 10 * time.Second

// streamRequest holds the query parameters of GET /ws/time.
type streamRequest struct {
	timezone string
	format   string
	interval time.Duration
}

func (s *Server) parseStreamRequest(r *http.Request) (*streamRequest, error) {
	q := r.URL.Query()
	req := &streamRequest{
		timezone: q.Get("timezone"),
		format:   q.Get("date_format"),
		interval: s.Config().Stream.DefaultInterval,
	}

	if raw := q.Get("interval"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidArgument,
				fmt.Sprintf("invalid interval %q", raw)).WithContext("interval", raw)
		}
		req.interval = d
	}

	if err := config.ValidateStreamInterval(req.interval); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeInvalidArgument, "invalid interval")
	}

	return req, nil
}

// handleTimeStream pushes a snapshot immediately and then once per
// interval until the peer goes away or the server shuts down. Bad
// parameters are rejected before the upgrade.
func (s *Server) handleTimeStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseStreamRequest(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	first, err := s.holder.Load().CurrentTime(req.format, req.timezone)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}
	defer conn.CloseNow()

	s.streams.Add(1)
	defer s.streams.Add(-1)

	logger := s.logger.With("timezone", first.Timezone, "interval", req.interval.String())
	logger.Debug(r.Context(), "Time stream opened")

	// Incoming frames are discarded; ctx ends when the peer closes.
	ctx := conn.CloseRead(r.Context())

	if err := s.writeSnapshot(ctx, conn, first); err != nil {
		logger.Debug(ctx, "Time stream closed", "reason", err.Error())
		return
	}

	ticker := time.NewTicker(req.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug(r.Context(), "Time stream closed by peer")
			return
		case <-s.shutdown:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case <-ticker.C:
			snap, err := s.holder.Load().CurrentTime(req.format, req.timezone)
			if err != nil {
				// The zone can disappear after a reload swaps the resolver.
				logger.Warn(ctx, err, "Time stream stopped")
				conn.Close(websocket.StatusPolicyViolation, errors.Code(err))
				return
			}
			if err := s.writeSnapshot(ctx, conn, snap); err != nil {
				logger.Debug(ctx, "Time stream closed", "reason", err.Error())
				return
			}
		}
	}
}

func (s *Server) writeSnapshot(ctx context.Context, conn *websocket.Conn, snap *timeinfo.Snapshot) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	return wsjson.Write(writeCtx, conn, snap)
}
