package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	internal "github.com/ZanzyTHEbar/directory-monitor/dirmon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()

	// Run from an empty directory so no stray config.yaml is picked up
	err = os.Chdir(suite.tempDir)
	require.NoError(suite.T(), err)
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("", nil)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), filepath.Clean(internal.DefaultMonitorDir), cfg.Monitor.Directory)
	assert.Equal(suite.T(), 5, cfg.Monitor.IntervalSeconds)
	assert.Equal(suite.T(), 5*time.Second, cfg.Monitor.Interval())
	assert.Equal(suite.T(), 1, cfg.Monitor.Workers)
	assert.True(suite.T(), cfg.Monitor.CreateDirectory)
	assert.Equal(suite.T(), "stop", cfg.Monitor.OnUnavailable)
	assert.False(suite.T(), cfg.Identity.NumericFallback)
	assert.Equal(suite.T(), internal.DefaultEventLogPath, cfg.EventLog.Path)
	assert.Equal(suite.T(), "full", cfg.EventLog.Format)
	assert.True(suite.T(), cfg.EventLog.Console)
	assert.False(suite.T(), cfg.Database.Enabled)
	assert.Equal(suite.T(), internal.DefaultDatabaseDSN, cfg.Database.DSN)
	assert.Equal(suite.T(), "info", cfg.Logger.Level)
	assert.False(suite.T(), cfg.Metrics.Enabled)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
monitor:
  directory: "./watched"
  interval: 2
  workers: 4
  onUnavailable: retry
identity:
  numericFallback: true
eventlog:
  path: "./out/events.csv"
  format: simple
  console: false
database:
  enabled: true
  dsn: "file:./out/events.db"
logger:
  level: debug
  format: json
`

	configFile := filepath.Join(suite.tempDir, "dirmon.yaml")
	err := os.WriteFile(configFile, []byte(configContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile, nil)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), "watched", cfg.Monitor.Directory)
	assert.Equal(suite.T(), 2*time.Second, cfg.Monitor.Interval())
	assert.Equal(suite.T(), 4, cfg.Monitor.Workers)
	assert.Equal(suite.T(), "retry", cfg.Monitor.OnUnavailable)
	assert.True(suite.T(), cfg.Identity.NumericFallback)
	assert.Equal(suite.T(), "./out/events.csv", cfg.EventLog.Path)
	assert.Equal(suite.T(), "simple", cfg.EventLog.Format)
	assert.False(suite.T(), cfg.EventLog.Console)
	assert.True(suite.T(), cfg.Database.Enabled)
	assert.Equal(suite.T(), "file:./out/events.db", cfg.Database.DSN)
	assert.Equal(suite.T(), "debug", cfg.Logger.Level)
	assert.Equal(suite.T(), "json", cfg.Logger.Format)
}

func (suite *ConfigTestSuite) TestLoadConfigFromSearchPath() {
	err := os.WriteFile(filepath.Join(suite.tempDir, "config.yaml"), []byte("monitor:\n  interval: 9\n"), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig("", nil)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 9, cfg.Monitor.IntervalSeconds)
}

func (suite *ConfigTestSuite) TestLoadConfigInvalidFile() {
	// An explicit path that does not exist is an error
	cfg, err := LoadConfig("/nonexistent/path/config.yaml", nil)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedFile() {
	malformedContent := `
monitor:
  directory: "./data"
  invalid_yaml: [unclosed bracket
`

	configFile := filepath.Join(suite.tempDir, "malformed.yaml")
	err := os.WriteFile(configFile, []byte(malformedContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile, nil)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigRejectsInvalidValues() {
	cases := map[string]string{
		"zero interval":  "monitor:\n  interval: 0\n",
		"bad policy":     "monitor:\n  onUnavailable: sometimes\n",
		"bad format":     "eventlog:\n  format: xml\n",
		"bad level":      "logger:\n  level: loud\n",
		"zero workers":   "monitor:\n  workers: 0\n",
		"empty database": "database:\n  enabled: true\n  dsn: \"\"\n",
	}

	for name, content := range cases {
		configFile := filepath.Join(suite.tempDir, "invalid.yaml")
		require.NoError(suite.T(), os.WriteFile(configFile, []byte(content), 0o644))

		cfg, err := LoadConfig(configFile, nil)
		assert.Error(suite.T(), err, name)
		assert.Nil(suite.T(), cfg, name)
	}
}

func (suite *ConfigTestSuite) TestEnvironmentOverridesDefaults() {
	suite.T().Setenv("DIRMON_MONITOR_INTERVAL", "30")
	suite.T().Setenv("DIRMON_EVENTLOG_FORMAT", "simple")

	cfg, err := LoadConfig("", nil)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 30, cfg.Monitor.IntervalSeconds)
	assert.Equal(suite.T(), "simple", cfg.EventLog.Format)
}

func (suite *ConfigTestSuite) TestFlagsOverrideFile() {
	configFile := filepath.Join(suite.tempDir, "dirmon.yaml")
	err := os.WriteFile(configFile, []byte("monitor:\n  directory: ./from-file\n  interval: 3\n"), 0o644)
	require.NoError(suite.T(), err)

	flags := NewFlagSet("dirmon")
	require.NoError(suite.T(), flags.Parse([]string{"--dir", "./from-flag", "--workers", "8"}))

	cfg, err := LoadConfig(configFile, flags)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "from-flag", cfg.Monitor.Directory)
	assert.Equal(suite.T(), 3, cfg.Monitor.IntervalSeconds)
	assert.Equal(suite.T(), 8, cfg.Monitor.Workers)
}

// BenchmarkLoadConfig benchmarks config loading performance
func BenchmarkLoadConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		cfg, err := LoadConfig("", nil)
		if err != nil {
			b.Fatal(err)
		}
		_ = cfg
	}
}
