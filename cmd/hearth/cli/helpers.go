package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/hearthapi/hearth/internal/config"
	"github.com/hearthapi/hearth/internal/store"
)

// loadConfig reads the effective configuration from viper (config file,
// HEARTH_* environment, flags).
func loadConfig() config.Config {
	return config.Load(viper.GetViper())
}

// newLogger builds the process logger from the logging config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openStore opens the configured database and runs migrations.
func openStore(cfg config.DatabaseConfig) (*store.Store, error) {
	return store.Open(cfg.Driver, cfg.DSN)
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
