// Package config loads process configuration from an optional YAML file and
// the environment. User preferences live in the settings table instead.
package config

import "time"

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	API      APIConfig      `yaml:"api"`
}

// DatabaseConfig selects the store. A DSN wins over Path; a Path ending in
// .json selects the single-file JSON store.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"NUDGE_DB_PATH"      env-default:"~/.config/nudge/nudge.db"`
	DSN  string `yaml:"dsn"  env:"NUDGE_DATABASE_DSN"`
}

type LogConfig struct {
	Debug bool   `yaml:"debug" env:"NUDGE_DEBUG"     env-default:"false"`
	Level string `yaml:"level" env:"NUDGE_LOG_LEVEL" env-default:"warn"`
}

type APIConfig struct {
	Addr            string        `yaml:"addr"             env:"NUDGE_API_ADDR"             env-default:"127.0.0.1:7420"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"NUDGE_API_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"NUDGE_API_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"NUDGE_API_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"NUDGE_API_SHUTDOWN_TIMEOUT" env-default:"10s"`
}
