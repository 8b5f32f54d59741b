// Package tools registers the time tools on an MCP server.
//
// Handlers read the current provider from a Holder on every call, so a
// configuration reload can swap the default timezone without restarting
// the server or disturbing calls already in flight.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/conneroisu/time-mcp/internal/errors"
	"github.com/conneroisu/time-mcp/internal/logging"
	"github.com/conneroisu/time-mcp/internal/timeinfo"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names.
const (
	GetCurrentTime    = "get_current_time"
	GetTimeComponents = "get_time_components"
)

// Holder publishes the active provider.
type Holder struct {
	provider atomic.Pointer[timeinfo.Provider]
}

// NewHolder returns a holder serving p.
func NewHolder(p *timeinfo.Provider) *Holder {
	h := &Holder{}
	h.provider.Store(p)
	return h
}

// Load returns the active provider.
func (h *Holder) Load() *timeinfo.Provider {
	return h.provider.Load()
}

// Swap replaces the active provider and returns the previous one.
func (h *Holder) Swap(p *timeinfo.Provider) *timeinfo.Provider {
	return h.provider.Swap(p)
}

// Registry owns the tool handlers.
type Registry struct {
	holder       *Holder
	logger       logging.Logger
	errorHandler *errors.ErrorHandler
}

// NewRegistry creates the handlers for the provider held by holder.
func NewRegistry(holder *Holder, logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithComponent("tools")

	return &Registry{
		holder:       holder,
		logger:       logger,
		errorHandler: errors.NewErrorHandler(logger),
	}
}

// CurrentTimeTool describes get_current_time.
func CurrentTimeTool() mcp.Tool {
	return mcp.NewTool(GetCurrentTime,
		mcp.WithDescription("Get the current time in the configured timezone, optionally in another IANA timezone and with a strftime-style format"),
		mcp.WithString("date_format",
			mcp.Description("strftime pattern for formatted_time, e.g. %Y-%m-%d %H:%M:%S. Defaults to ISO-8601."),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA timezone name, e.g. America/New_York. Defaults to the server's configured timezone."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// ComponentsTool describes get_time_components.
func ComponentsTool() mcp.Tool {
	return mcp.NewTool(GetTimeComponents,
		mcp.WithDescription("Get the current time split into year, month, day, hour, minute, second, microsecond and weekday (0 = Monday)"),
		mcp.WithString("timezone",
			mcp.Description("IANA timezone name, e.g. Asia/Tokyo. Defaults to the server's configured timezone."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// Register adds both tools to s.
func (r *Registry) Register(s *server.MCPServer) {
	s.AddTool(CurrentTimeTool(), r.HandleCurrentTime)
	s.AddTool(ComponentsTool(), r.HandleComponents)
}

// HandleCurrentTime serves get_current_time.
func (r *Registry) HandleCurrentTime(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	perf := logging.StartOperation(r.logger, GetCurrentTime)

	format, err := optionalString(req, "date_format")
	if err != nil {
		return r.fail(ctx, perf, err), nil
	}
	timezone, err := optionalString(req, "timezone")
	if err != nil {
		return r.fail(ctx, perf, err), nil
	}

	snap, err := r.holder.Load().CurrentTime(format, timezone)
	if err != nil {
		return r.fail(ctx, perf, err), nil
	}

	perf.End(ctx, "timezone", snap.Timezone)
	return jsonResult(snap)
}

// HandleComponents serves get_time_components.
func (r *Registry) HandleComponents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	perf := logging.StartOperation(r.logger, GetTimeComponents)

	timezone, err := optionalString(req, "timezone")
	if err != nil {
		return r.fail(ctx, perf, err), nil
	}

	components, err := r.holder.Load().Components(timezone)
	if err != nil {
		return r.fail(ctx, perf, err), nil
	}

	perf.End(ctx, "timezone", components.Timezone)
	return jsonResult(components)
}

func (r *Registry) fail(ctx context.Context, perf *logging.PerfLogger, err error) *mcp.CallToolResult {
	perf.EndWithError(ctx, err)
	r.errorHandler.Handle(ctx, err)
	return mcp.NewToolResultError(err.Error())
}

// optionalString returns the named argument, or "" when it is absent or
// null. Any other non-string value is rejected.
func optionalString(req mcp.CallToolRequest, name string) (string, error) {
	raw, ok := req.GetArguments()[name]
	if !ok || raw == nil {
		return "", nil
	}

	s, ok := raw.(string)
	if !ok {
		return "", errors.NewValidationError(errors.ErrCodeInvalidArgument,
			fmt.Sprintf("argument %q must be a string, got %T", name, raw)).
			WithContext("argument", name)
	}

	return s, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInternalError, "encoding tool result", err)
	}

	return mcp.NewToolResultText(string(data)), nil
}

// NewServer builds an MCP server exposing the time tools.
func NewServer(name, version string, registry *Registry) *server.MCPServer {
	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	registry.Register(s)

	return s
}
