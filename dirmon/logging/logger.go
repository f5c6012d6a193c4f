package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	internal "github.com/ZanzyTHEbar/directory-monitor/dirmon"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/config"

	"github.com/charmbracelet/log"
)

// SetupLogger builds the slog logger used across the application and installs it as the default.
func SetupLogger(cfg config.LoggerConfig) *slog.Logger {
	logger := NewLogger(os.Stderr, cfg)
	slog.SetDefault(logger)
	logger.Debug("Logger initialized", "level", cfg.Level, "format", cfg.Format)
	return logger
}

// NewLogger returns a slog logger backed by a charmbracelet handler writing to w.
func NewLogger(w io.Writer, cfg config.LoggerConfig) *slog.Logger {
	var formatter log.Formatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		formatter = log.TextFormatter
	}

	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          internal.DefaultAppName,
		Formatter:       formatter,
		Level:           ParseLevel(cfg.Level),
	})

	return slog.New(handler)
}

// ParseLevel maps a config level name to a charmbracelet level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
