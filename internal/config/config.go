// Package config provides configuration management for the time server
// using Viper for loading from files, environment variables and
// command-line flags.
//
// Values are read from the process-wide viper instance, which the cmd
// package populates from (highest precedence first) bound flags,
// TIME_MCP_* environment variables and the YAML config file.
package config

import (
	"fmt"
	"time"

	"github.com/conneroisu/time-mcp/internal/timeinfo"
	"github.com/conneroisu/time-mcp/internal/zone"
	"github.com/spf13/viper"
)

// Supported transports.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Fixed HTTP routes served next to the MCP endpoint.
const (
	HealthPath     = "/health"
	VersionPath    = "/version"
	TimeStreamPath = "/ws/time"
)

type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Time   TimeConfig   `mapstructure:"time" yaml:"time"`
	Stream StreamConfig `mapstructure:"stream" yaml:"stream"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Transport string `mapstructure:"transport" yaml:"transport"`
	Host      string `mapstructure:"host" yaml:"host"`
	Port      int    `mapstructure:"port" yaml:"port"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
}

type TimeConfig struct {
	DefaultTimezone string `mapstructure:"default_timezone" yaml:"default_timezone"`
	ZoneTable       string `mapstructure:"zone_table" yaml:"zone_table"`
}

type StreamConfig struct {
	DefaultInterval time.Duration `mapstructure:"default_interval" yaml:"default_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.endpoint", "/mcp")
	v.SetDefault("time.default_timezone", timeinfo.DefaultTimezone)
	v.SetDefault("time.zone_table", "")
	v.SetDefault("stream.default_interval", time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads and validates the configuration held by the global viper
// instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Resolver returns the zone resolver the configuration selects: the static
// table when time.zone_table is set, the host database otherwise.
func (c *Config) Resolver() (zone.Resolver, error) {
	if c.Time.ZoneTable == "" {
		return zone.NewSystemResolver(), nil
	}

	return zone.LoadTable(c.Time.ZoneTable)
}

// NewProvider builds the time provider the configuration describes. Extra
// options are applied after the configured ones.
func (c *Config) NewProvider(opts ...timeinfo.Option) (*timeinfo.Provider, error) {
	resolver, err := c.Resolver()
	if err != nil {
		return nil, err
	}

	return timeinfo.NewProvider(append([]timeinfo.Option{
		timeinfo.WithDefaultTimezone(c.Time.DefaultTimezone),
		timeinfo.WithResolver(resolver),
	}, opts...)...)
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
