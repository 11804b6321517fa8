package config

import (
	"fmt"
	"net"
	"strings"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the loaded configuration. Load calls it.
func (c *Config) Validate() error {
	if c.Database.Path == "" && c.Database.DSN == "" {
		return fmt.Errorf("database.path or database.dsn is required")
	}

	level := strings.ToLower(c.Log.Level)
	valid := false
	for _, l := range logLevels {
		if level == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("log.level must be one of %s (got %q)", strings.Join(logLevels, ", "), c.Log.Level)
	}

	if err := c.API.validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (a *APIConfig) validate() error {
	if _, _, err := net.SplitHostPort(a.Addr); err != nil {
		return fmt.Errorf("addr %q: %w", a.Addr, err)
	}
	if a.ReadTimeout <= 0 || a.WriteTimeout <= 0 || a.IdleTimeout <= 0 || a.ShutdownTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// Backend names the store the configuration selects.
func (d DatabaseConfig) Backend() string {
	switch {
	case d.DSN != "" || strings.HasPrefix(d.Path, "postgres://") || strings.HasPrefix(d.Path, "postgresql://") ||
		strings.Contains(d.Path, "host="):
		return "postgres"
	case strings.HasSuffix(d.Path, ".json"):
		return "json"
	default:
		return "sqlite"
	}
}
