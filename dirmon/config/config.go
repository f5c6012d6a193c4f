package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/directory-monitor/dirmon"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file, environment variables or flags.
type Config struct {
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Identity IdentityConfig `mapstructure:"identity"`
	EventLog EventLogConfig `mapstructure:"eventlog"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// MonitorConfig stores the monitored directory and the polling schedule.
type MonitorConfig struct {
	Directory       string `mapstructure:"directory" validate:"required"`
	IntervalSeconds int    `mapstructure:"interval" validate:"min=1"`
	Workers         int    `mapstructure:"workers" validate:"min=1,max=256"`
	CreateDirectory bool   `mapstructure:"createDirectory"`
	OnUnavailable   string `mapstructure:"onUnavailable" validate:"oneof=stop retry"`
}

// Interval returns the polling interval as a duration.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

// IdentityConfig controls owner/group name resolution.
type IdentityConfig struct {
	NumericFallback bool `mapstructure:"numericFallback"`
}

// EventLogConfig stores the CSV event log settings.
type EventLogConfig struct {
	Path    string `mapstructure:"path" validate:"required"`
	Format  string `mapstructure:"format" validate:"oneof=full simple"`
	Console bool   `mapstructure:"console"`
}

// DatabaseConfig stores the event store connection details.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

// LoggerConfig holds the configuration for the app logging.
type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json logfmt"`
}

// MetricsConfig holds the prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address" validate:"required_if=Enabled true"`
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"dir":       "monitor.directory",
	"interval":  "monitor.interval",
	"workers":   "monitor.workers",
	"log-file":  "eventlog.path",
	"log-level": "logger.level",
	"metrics":   "metrics.enabled",
}

// NewFlagSet returns the flags understood by LoadConfig.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "path to a config file")
	fs.StringP("dir", "d", internal.DefaultMonitorDir, "directory to monitor")
	fs.IntP("interval", "i", int(internal.DefaultPollInterval/time.Second), "polling interval in seconds")
	fs.Int("workers", internal.DefaultWorkers, "parallel metadata extraction workers")
	fs.String("log-file", internal.DefaultEventLogPath, "CSV event log path")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.Bool("metrics", false, "expose prometheus metrics")
	return fs
}

// LoadConfig reads configuration from file, environment variables and flags.
// flags may be nil.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(internal.DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // monitor.interval becomes DIRMON_MONITOR_INTERVAL
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file in the search path; defaults, env and flags apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Monitor.Directory = filepath.Clean(cfg.Monitor.Directory)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("monitor.directory", internal.DefaultMonitorDir)
	v.SetDefault("monitor.interval", int(internal.DefaultPollInterval/time.Second))
	v.SetDefault("monitor.workers", internal.DefaultWorkers)
	v.SetDefault("monitor.createDirectory", true)
	v.SetDefault("monitor.onUnavailable", "stop")
	v.SetDefault("identity.numericFallback", false)
	v.SetDefault("eventlog.path", internal.DefaultEventLogPath)
	v.SetDefault("eventlog.format", internal.DefaultEventLogFormat)
	v.SetDefault("eventlog.console", true)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.dsn", internal.DefaultDatabaseDSN)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", internal.DefaultMetricsAddress)
}

// Validate checks the struct tags and path constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if strings.Contains(c.Monitor.Directory, "\x00") {
		return fmt.Errorf("config validation failed: monitor.directory contains invalid characters")
	}
	return nil
}
