package internal

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

var (
	// DefaultAppName is used for the config directory, env prefix and log prefix
	DefaultAppName    = "dirmon"
	DefaultEnvPrefix  = "DIRMON"
	DefaultConfigPath = filepath.Join(getHomeDir(), ".config", DefaultAppName)

	// Monitor defaults
	DefaultMonitorDir   = filepath.Join(".", "data", "monitored_dir")
	DefaultPollInterval = 5 * time.Second
	DefaultWorkers      = 1

	// Event log defaults
	DefaultEventLogPath   = filepath.Join(".", "logs", "directory_events.csv")
	DefaultEventLogFormat = "full"

	// Default Database settings
	DefaultDatabaseDSN = "file:" + filepath.Join(".", "logs", "events.db")

	// Default metrics listener
	DefaultMetricsAddress = ":9108"

	// TimestampLayout is the local timestamp format written to event records
	TimestampLayout = "2006-01-02 15:04:05"
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current working directory if home directory is unavailable
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetConsoleLogger returns a zerolog logger writing human readable lines to stdout
func GetConsoleLogger() zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: TimestampLayout}
	return zerolog.New(out).With().Timestamp().Logger()
}
