package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conneroisu/time-mcp/internal/config"
	"github.com/conneroisu/time-mcp/internal/errors"
	"github.com/conneroisu/time-mcp/internal/logging"
	"github.com/conneroisu/time-mcp/internal/server"
	"github.com/conneroisu/time-mcp/internal/tools"
	"github.com/conneroisu/time-mcp/internal/watcher"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const zoneTableDebounce = 250 * time.Millisecond

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve the time tools over MCP",
	Long: `Serve get_current_time and get_time_components over the Model Context
Protocol.

With --transport stdio (the default) the server speaks JSON-RPC on stdin and
stdout; logs go to stderr. With --transport streamable-http it listens on
--host:--port and also serves /health, /version and a /ws/time websocket
stream. In HTTP mode the config file is watched and a changed default
timezone takes effect without a restart. A configured --zone-table file is
watched in both modes.

Examples:
  time-mcp serve
  time-mcp serve --timezone America/New_York
  time-mcp serve --transport streamable-http --port 8090
  time-mcp serve --transport streamable-http --zone-table zones.yml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("transport", config.TransportStdio, "Transport (stdio|streamable-http)")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to in HTTP mode")
	serveCmd.Flags().IntP("port", "p", 8090, "Port to serve on in HTTP mode")
	serveCmd.Flags().String("endpoint", "/mcp", "Path of the streamable HTTP endpoint")
	serveCmd.Flags().StringP("timezone", "t", "", "Default IANA timezone (default Europe/Berlin)")
	serveCmd.Flags().String("zone-table", "", "YAML table of fixed-offset zones to use instead of the system database")

	viper.BindPFlag("server.transport", serveCmd.Flags().Lookup("transport"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.endpoint", serveCmd.Flags().Lookup("endpoint"))
	viper.BindPFlag("time.zone_table", serveCmd.Flags().Lookup("zone-table"))

	AddFlagValidation(serveCmd, "transport", ValidateTransport)
	AddFlagValidation(serveCmd, "port", ValidatePort)
}

func runServe(cmd *cobra.Command, args []string) error {
	// An empty --timezone must not mask the config file or the default.
	if tz, _ := cmd.Flags().GetString("timezone"); tz != "" {
		viper.Set("time.default_timezone", tz)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	provider, err := cfg.NewProvider()
	if err != nil {
		return fmt.Errorf("failed to create time provider: %w", err)
	}

	srv := server.New(cfg, tools.NewHolder(provider), logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Transport == config.TransportStreamableHTTP && viper.ConfigFileUsed() != "" {
		watchConfig(ctx, srv, logger)
	}

	if cfg.Time.ZoneTable != "" {
		if err := watchZoneTable(ctx, srv, logger); err != nil {
			logger.Warn(ctx, err, "Zone table changes will not be picked up", "file", cfg.Time.ZoneTable)
		}
	}

	if err := srv.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		if suggestions := errors.ServerStartError(err, cfg.Server.Port); len(suggestions) > 0 {
			return errors.NewEnhancedError(
				fmt.Sprintf("Failed to start server on port %d", cfg.Server.Port),
				err,
				suggestions,
			)
		}
		return err
	}

	logger.Info(context.Background(), "Server stopped")
	return nil
}

// watchConfig reloads the provider whenever the config file changes and
// still validates. A bad edit keeps the previous provider in place.
func watchConfig(ctx context.Context, srv *server.Server, logger logging.Logger) {
	logger = logger.WithComponent("config")

	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if ctx.Err() != nil {
			return
		}

		cfg, err := config.Load()
		if err != nil {
			logger.Warn(ctx, err, "Ignoring invalid configuration change", "file", e.Name)
			return
		}

		if err := srv.Reload(cfg); err != nil {
			logger.Warn(ctx, err, "Configuration reload failed", "file", e.Name)
		}
	})
	viper.WatchConfig()

	logger.Debug(ctx, "Watching configuration file", "file", viper.ConfigFileUsed())
}

// watchZoneTable rebuilds the provider when the zone table file changes.
func watchZoneTable(ctx context.Context, srv *server.Server, logger logging.Logger) error {
	fw, err := watcher.NewFileWatcher(zoneTableDebounce, logger)
	if err != nil {
		return err
	}

	if err := fw.AddFile(srv.Config().Time.ZoneTable); err != nil {
		fw.Stop()
		return err
	}

	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		return srv.Reload(srv.Config())
	})
	fw.Start(ctx)

	go func() {
		<-ctx.Done()
		fw.Stop()
	}()

	return nil
}

// loadConfig loads the configuration and decorates failures with hints.
func loadConfig() (*config.Config, error) {
	err := configReadErr
	var cfg *config.Config
	if err == nil {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, errors.NewEnhancedError(
			"Failed to load configuration",
			err,
			errors.ConfigurationError(err.Error(), configPath()),
		)
	}

	return cfg, nil
}
