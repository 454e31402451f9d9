package config

import (
	"os"
	"strconv"
	"strings"

	"namedprng/domain/core"
	"namedprng/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Streams  StreamConfig
	Tape     TapeConfig
	Database DatabaseConfig
	Log      LogConfig
}

// StreamConfig holds seed-space and stream-mode settings
type StreamConfig struct {
	NMax     int
	Purposes []core.Purpose
	Mode     core.StreamMode
	UsedOnly bool
}

// TapeConfig holds tape storage settings
type TapeConfig struct {
	Dir string
}

// DatabaseConfig holds session ledger connection settings. An empty URL
// disables the ledger.
type DatabaseConfig struct {
	URL string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	streamConfig, err := loadStreamConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load stream configuration")
	}
	config.Streams = *streamConfig

	config.Tape = TapeConfig{
		Dir: getEnvOrDefault("PRNG_TAPE_DIR", "./tapes"),
	}
	config.Database = DatabaseConfig{
		URL: getEnvOrDefault("DATABASE_URL", ""),
	}
	config.Log = LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Pretty: getEnvBoolOrDefault("LOG_PRETTY", true),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadStreamConfig() (*StreamConfig, error) {
	mode, err := core.ParseStreamMode(getEnvOrDefault("PRNG_MODE", string(core.ModeAlgorithmic)))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	return &StreamConfig{
		NMax:     getEnvIntOrDefault("PRNG_NMAX", 100),
		Purposes: splitPurposes(getEnvOrDefault("PRNG_PURPOSES", "random_walk,radioactive_decay")),
		Mode:     mode,
		UsedOnly: getEnvBoolOrDefault("PRNG_USED_ONLY", false),
	}, nil
}

func splitPurposes(csv string) []core.Purpose {
	var purposes []core.Purpose
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			purposes = append(purposes, core.Purpose(trimmed))
		}
	}
	return purposes
}

func validateConfig(config *Config) error {
	if config.Streams.NMax < 1 {
		return errors.ConfigInvalid("PRNG_NMAX must be at least 1")
	}
	if len(config.Streams.Purposes) == 0 {
		return errors.ConfigInvalid("PRNG_PURPOSES must name at least one purpose")
	}
	if config.Tape.Dir == "" {
		return errors.ConfigInvalid("PRNG_TAPE_DIR must not be empty")
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

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
