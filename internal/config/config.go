// Package config defines the hearth configuration, loaded from a YAML
// file, HEARTH_* environment variables, and flags through viper.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Sweep     SweepConfig
	Logging   LoggingConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// DatabaseConfig selects the store backend. For the sqlite driver the DSN
// is a data directory (empty means in-memory).
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// AuthConfig controls token issuance.
type AuthConfig struct {
	TokenTTL time.Duration
}

// RateLimitConfig controls admission. Backend is "memory" or "redis".
type RateLimitConfig struct {
	Backend   string
	RedisAddr string
	Limit     int
	Window    time.Duration
}

// SweepConfig controls the recurring token expiry sweep.
type SweepConfig struct {
	Interval time.Duration
}

// LoggingConfig controls log output. Format is "text" or "json".
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads the configuration from viper, applying defaults for every
// unset key.
func Load(v *viper.Viper) Config {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("auth.token_ttl", "2h")
	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.redis_addr", "localhost:6379")
	v.SetDefault("ratelimit.limit", 60)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("sweep.interval", "4h")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	return Config{
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			CORSOrigins:     v.GetStringSlice("server.cors_origins"),
		},
		Database: DatabaseConfig{
			Driver: v.GetString("database.driver"),
			DSN:    v.GetString("database.dsn"),
		},
		Auth: AuthConfig{
			TokenTTL: v.GetDuration("auth.token_ttl"),
		},
		RateLimit: RateLimitConfig{
			Backend:   v.GetString("ratelimit.backend"),
			RedisAddr: v.GetString("ratelimit.redis_addr"),
			Limit:     v.GetInt("ratelimit.limit"),
			Window:    v.GetDuration("ratelimit.window"),
		},
		Sweep: SweepConfig{
			Interval: v.GetDuration("sweep.interval"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}
}
