// Package cmd provides the command-line interface for time-mcp with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI reads configuration from several sources with clear precedence:
//	1. Command-line flags (--timezone, --port, etc.) - highest priority
//	2. Individual environment variables (TIME_MCP_SERVER_PORT, etc.)
//	3. --config flag or TIME_MCP_CONFIG_FILE - custom config file path
//	4. Configuration file (.time-mcp.yml) - lowest priority
//
// Environment Variables:
//
//	TIME_MCP_CONFIG_FILE: Path to custom configuration file
//	TIME_MCP_TIME_DEFAULT_TIMEZONE: Override the default timezone
//	TIME_MCP_SERVER_TRANSPORT: stdio or streamable-http
//	TIME_MCP_SERVER_PORT: Override server port
//	And the rest following the TIME_MCP_<SECTION>_<OPTION> pattern
//
// Commands:
//
//   - serve: serve the time tools over stdio or streamable HTTP
//   - now: print get_current_time once
//   - components: print get_time_components once
//   - version: print build information
package cmd

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/conneroisu/time-mcp/internal/clock"
	"github.com/conneroisu/time-mcp/internal/config"
	"github.com/conneroisu/time-mcp/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfigName = ".time-mcp"

var (
	cfgFile string

	// configReadErr holds a config file that exists but failed to parse.
	configReadErr error

	// cliClock feeds the one-shot commands.
	cliClock clock.Clock = clock.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "time-mcp",
	Short: "An MCP server that tells the current time in any timezone",
	Long: `time-mcp exposes two read-only tools over the Model Context Protocol:

  get_current_time      ISO-8601 and strftime-formatted current time
  get_time_components   year, month, day, hour, minute, second,
                        microsecond and weekday (0 = Monday)

Both accept an optional IANA timezone and default to Europe/Berlin unless
configured otherwise.

Quick Start:
  time-mcp serve                                    Serve over stdio
  time-mcp serve --transport streamable-http        Serve over HTTP on :8090
  time-mcp now --timezone Asia/Tokyo                Print the time once
  time-mcp components -o json                       Print the fields once

Documentation: https://github.com/conneroisu/time-mcp`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .time-mcp.yml, can also use TIME_MCP_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	AddFlagValidation(rootCmd, "log-level", func(level string) error {
		_, err := logging.ParseLevel(level)
		return err
	})
}

// initConfig points viper at the config file and enables TIME_MCP_*
// environment overrides. A missing file is not an error; a malformed one
// surfaces when a command loads the configuration.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("TIME_MCP_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(defaultConfigName)
	}

	viper.SetEnvPrefix("TIME_MCP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// stdout belongs to the stdio transport.
	err := viper.ReadInConfig()
	if err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		return
	}

	var notFound viper.ConfigFileNotFoundError
	if !stderrors.As(err, &notFound) && !os.IsNotExist(err) {
		configReadErr = fmt.Errorf("reading config file: %w", err)
	}
}

func newLogger(cfg *config.Config) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}

func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}

	return defaultConfigName + ".yml"
}
