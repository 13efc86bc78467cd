package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tamperstat/internal/analysis"
	"tamperstat/internal/errors"
)

// Environment keys
const (
	EnvLogLevel        = "LOG_LEVEL"
	EnvReferencePrefix = "TAMPERSTAT_REFERENCE_PREFIX"
	EnvMaxSegment      = "TAMPERSTAT_MAX_SEGMENT"
	EnvOutcome         = "TAMPERSTAT_OUTCOME"
	EnvOutputDir       = "TAMPERSTAT_OUTPUT_DIR"
	EnvArchiveDriver   = "TAMPERSTAT_ARCHIVE_DRIVER"
	EnvArchiveDSN      = "TAMPERSTAT_ARCHIVE_DSN"
	EnvConfigFile      = "TAMPERSTAT_CONFIG"
)

// Config represents the complete application configuration
type Config struct {
	Analysis analysis.Config `yaml:"analysis"`
	Output   OutputConfig    `yaml:"output"`
	Archive  ArchiveConfig   `yaml:"archive"`
	Log      LogConfig       `yaml:"log"`
}

// OutputConfig holds where generated plot data and scripts go
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// ArchiveConfig holds the result archive connection settings
type ArchiveConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from .env, the environment and an optional YAML
// file, in increasing precedence, and validates it. An empty path falls back
// to TAMPERSTAT_CONFIG.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := fromEnv()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := overlayFile(config, path); err != nil {
			return nil, err
		}
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Default returns the built-in configuration without reading the environment
func Default() *Config {
	return &Config{
		Analysis: analysis.DefaultConfig(),
		Output:   OutputConfig{Dir: "."},
		Archive:  ArchiveConfig{Driver: "sqlite3", DSN: "tamperstat.db"},
		Log:      LogConfig{Level: "INFO"},
	}
}

func fromEnv() *Config {
	config := Default()
	config.Analysis.ReferencePrefix = getEnvOrDefault(EnvReferencePrefix, config.Analysis.ReferencePrefix)
	config.Analysis.MaxSegmentLength = getEnvInt64OrDefault(EnvMaxSegment, config.Analysis.MaxSegmentLength)
	config.Analysis.OutcomeField = getEnvOrDefault(EnvOutcome, config.Analysis.OutcomeField)
	config.Output.Dir = getEnvOrDefault(EnvOutputDir, config.Output.Dir)
	config.Archive.Driver = getEnvOrDefault(EnvArchiveDriver, config.Archive.Driver)
	config.Archive.DSN = getEnvOrDefault(EnvArchiveDSN, config.Archive.DSN)
	config.Log.Level = getEnvOrDefault(EnvLogLevel, config.Log.Level)
	return config
}

// overlayFile decodes path over config. Keys absent from the file keep
// their current values.
func overlayFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(errors.ConfigInvalid(err.Error()), "reading config file %s", path)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.Wrapf(errors.ConfigInvalid(err.Error()), "parsing config file %s", path)
	}
	return nil
}

// Validate checks the analysis constants before any table is read
func Validate(config *Config) error {
	a := config.Analysis
	if strings.TrimSpace(a.ReferencePrefix) == "" {
		return errors.ConfigInvalid("reference prefix is required")
	}
	if len(a.ReferencePositions) == 0 {
		return errors.ConfigInvalid("reference positions are required")
	}
	for i, p := range a.ReferencePositions {
		if p < 0 || p > 1 {
			return errors.ConfigInvalid(fmt.Sprintf("reference position %d is %g, outside [0,1]", i, p))
		}
	}
	if a.MaxSegmentLength <= 0 {
		return errors.ConfigInvalid("max segment length must be positive")
	}
	if len(a.Features) == 0 {
		return errors.ConfigInvalid("at least one feature is required")
	}
	for _, name := range a.Features {
		if _, err := analysis.LookupFeature(name); err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, err)
		}
	}
	switch config.Archive.Driver {
	case "sqlite3", "postgres":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unsupported archive driver %q", config.Archive.Driver))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
