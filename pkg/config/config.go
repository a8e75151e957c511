// Package config loads blockmover's configuration from environment
// variables, following the same BLOCKMOVER_-prefixed env-var convention
// the rest of this codebase's ancestry used for its own settings.
//
// Configuration is organized into logical sections:
//   - Disk: Disk-tier backing file settings
//   - Device: default GPU device and stream pool sizing
//   - Runtime: opt-in Memcpy offload and its concurrency limit
//   - Registration: whether the registration table is persisted to disk
//   - Logging: structured logging configuration
//
// Use LoadFromEnv() to create a Config from environment variables, then
// Validate() before use. Only a single device's id and stream count are
// configurable here; this package has no loader for a multi-device stream
// pool topology.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all blockmover configuration loaded from environment
// variables.
type Config struct {
	Disk         DiskConfig
	Device       DeviceConfig
	Runtime      RuntimeConfig
	Registration RegistrationConfig
	Logging      LoggingConfig
}

// DiskConfig controls where Disk-tier backing files are created.
type DiskConfig struct {
	// Dir is the directory backing files are created under. Empty uses
	// the OS default temp directory.
	Dir string
}

// DeviceConfig controls the default GPU device and stream topology used
// when a caller does not supply an explicit StreamPoolConfig.
type DeviceConfig struct {
	DefaultDeviceID int
	StreamCount     int
}

// RuntimeConfig controls the opt-in Memcpy offload and how many offloaded
// copies may run at once.
type RuntimeConfig struct {
	OffloadEnabled bool
	Workers        int
}

// RegistrationConfig controls whether the registration table is
// persisted to a Badger-backed ledger so registrations survive process
// restart.
type RegistrationConfig struct {
	PersistEnabled bool
	DataDir        string
	InMemory       bool
	SyncWrites     bool
}

// LoggingConfig controls structured log verbosity and format.
type LoggingConfig struct {
	Level  string
	Format string // "json" or "console"
}

// LoadFromEnv builds a Config from BLOCKMOVER_-prefixed environment
// variables, falling back to sensible defaults for every field left
// unset.
func LoadFromEnv() *Config {
	return &Config{
		Disk: DiskConfig{
			Dir: getEnv("BLOCKMOVER_DISK_DIR", ""),
		},
		Device: DeviceConfig{
			DefaultDeviceID: getEnvInt("BLOCKMOVER_DEVICE_ID", 0),
			StreamCount:     getEnvInt("BLOCKMOVER_STREAM_COUNT", 1),
		},
		Runtime: RuntimeConfig{
			OffloadEnabled: getEnvBool("BLOCKMOVER_OFFLOAD_ENABLED", false),
			Workers:        getEnvInt("BLOCKMOVER_OFFLOAD_WORKERS", 4),
		},
		Registration: RegistrationConfig{
			PersistEnabled: getEnvBool("BLOCKMOVER_REGISTRATION_PERSIST", false),
			DataDir:        getEnv("BLOCKMOVER_REGISTRATION_DATA_DIR", "./data/registrations"),
			InMemory:       getEnvBool("BLOCKMOVER_REGISTRATION_IN_MEMORY", false),
			SyncWrites:     getEnvBool("BLOCKMOVER_REGISTRATION_SYNC_WRITES", true),
		},
		Logging: LoggingConfig{
			Level:  getEnv("BLOCKMOVER_LOG_LEVEL", "info"),
			Format: getEnv("BLOCKMOVER_LOG_FORMAT", "console"),
		},
	}
}

// Validate checks the config for values that would fail later at use
// rather than at startup.
func (c *Config) Validate() error {
	if c.Device.StreamCount <= 0 {
		return fmt.Errorf("config: BLOCKMOVER_STREAM_COUNT must be positive, got %d", c.Device.StreamCount)
	}
	if c.Runtime.OffloadEnabled && c.Runtime.Workers <= 0 {
		return fmt.Errorf("config: BLOCKMOVER_OFFLOAD_WORKERS must be positive when offload is enabled, got %d", c.Runtime.Workers)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: BLOCKMOVER_LOG_LEVEL must be one of debug/info/warn/error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Disk.Dir=%q Device.ID=%d Device.Streams=%d Offload=%v(%d workers) Registration.Persist=%v Log=%s/%s}",
		c.Disk.Dir, c.Device.DefaultDeviceID, c.Device.StreamCount,
		c.Runtime.OffloadEnabled, c.Runtime.Workers,
		c.Registration.PersistEnabled, c.Logging.Level, c.Logging.Format,
	)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
