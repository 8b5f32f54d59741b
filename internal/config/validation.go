package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/conneroisu/time-mcp/internal/errors"
	"github.com/conneroisu/time-mcp/internal/logging"
)

// Bounds for the websocket stream interval.
const (
	MinStreamInterval = 100 * time.Millisecond
	MaxStreamInterval = time.Minute
)

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateTimeConfig(config); err != nil {
		return fmt.Errorf("time config: %w", err)
	}

	if err := ValidateStreamInterval(config.Stream.DefaultInterval); err != nil {
		return fmt.Errorf("stream config: %w", err)
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	switch config.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		return errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("unsupported transport %q (expected %s or %s)",
				config.Transport, TransportStdio, TransportStreamableHTTP))
	}

	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\", " "}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %q", char)
			}
		}
	}

	if !strings.HasPrefix(config.Endpoint, "/") || config.Endpoint == "/" {
		return fmt.Errorf("endpoint %q must be an absolute path other than /", config.Endpoint)
	}
	if strings.ContainsAny(config.Endpoint, " \t{}") {
		return fmt.Errorf("endpoint %q contains whitespace or braces", config.Endpoint)
	}
	switch config.Endpoint {
	case HealthPath, VersionPath, TimeStreamPath:
		return fmt.Errorf("endpoint %q is reserved", config.Endpoint)
	}

	return nil
}

// validateTimeConfig checks that the default zone resolves with the
// resolver the configuration selects.
func validateTimeConfig(config *Config) error {
	if config.Time.ZoneTable != "" {
		if containsTraversal(config.Time.ZoneTable) {
			return fmt.Errorf("zone_table contains path traversal: %s", config.Time.ZoneTable)
		}
	}

	resolver, err := config.Resolver()
	if err != nil {
		return fmt.Errorf("zone table: %w", err)
	}

	if _, err := resolver.Resolve(config.Time.DefaultTimezone); err != nil {
		return errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "invalid default timezone")
	}

	return nil
}

// containsTraversal reports whether p still climbs out of its base
// directory once cleaned.
func containsTraversal(p string) bool {
	for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(p)), "/") {
		if part == ".." {
			return true
		}
	}

	return false
}

// ValidateStreamInterval checks a websocket push interval against the
// allowed bounds.
func ValidateStreamInterval(d time.Duration) error {
	if d < MinStreamInterval || d > MaxStreamInterval {
		return fmt.Errorf("interval %s outside allowed range %s-%s", d, MinStreamInterval, MaxStreamInterval)
	}

	return nil
}

func validateLogConfig(config *LogConfig) error {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		return err
	}

	switch config.Format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unsupported log format %q (expected text or json)", config.Format)
	}
}
