// Package internal contains the implementation packages of time-mcp.
//
// # Package Organization
//
//   - clock: the Clock capability and a fixed clock for tests
//   - zone: timezone resolvers backed by the host database or a YAML table
//   - timeinfo: current-time snapshots and decomposed fields
//   - errors: structured errors with stable codes and CLI suggestions
//   - logging: structured logging on log/slog, written to stderr
//   - config: viper-backed configuration and validation
//   - tools: MCP tool definitions and handlers
//   - server: stdio and streamable HTTP hosting, health and websocket stream
//   - watcher: debounced file watching for zone table reloads
//   - version: build metadata
//
// # Request Flow
//
// A tool call arrives through the server package, which hands it to the
// tools registry. The registry loads the active timeinfo.Provider from an
// atomic holder, so a reload triggered by config or watcher never races a
// call in flight. The provider reads its clock once, resolves the zone and
// returns a fresh value, which the registry encodes as JSON text.
//
// # Testing Strategy
//
//   - Table-driven unit tests with testify
//   - A fixed clock and a static zone table for deterministic output
//   - httptest and in-process MCP clients for the transports
//   - Property tests with gopter behind the property build tag
package internal
