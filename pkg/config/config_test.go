package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		prev, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, prev)
			} else {
				os.Unsetenv(k)
			}
		})
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearEnv(t,
		"BLOCKMOVER_DISK_DIR", "BLOCKMOVER_DEVICE_ID", "BLOCKMOVER_STREAM_COUNT",
		"BLOCKMOVER_OFFLOAD_ENABLED", "BLOCKMOVER_OFFLOAD_WORKERS",
		"BLOCKMOVER_REGISTRATION_PERSIST", "BLOCKMOVER_REGISTRATION_DATA_DIR",
		"BLOCKMOVER_REGISTRATION_IN_MEMORY", "BLOCKMOVER_REGISTRATION_SYNC_WRITES",
		"BLOCKMOVER_LOG_LEVEL", "BLOCKMOVER_LOG_FORMAT",
	)

	c := LoadFromEnv()
	assert.Equal(t, "", c.Disk.Dir)
	assert.Equal(t, 0, c.Device.DefaultDeviceID)
	assert.Equal(t, 1, c.Device.StreamCount)
	assert.False(t, c.Runtime.OffloadEnabled)
	assert.Equal(t, 4, c.Runtime.Workers)
	assert.False(t, c.Registration.PersistEnabled)
	assert.Equal(t, "./data/registrations", c.Registration.DataDir)
	assert.True(t, c.Registration.SyncWrites)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, "console", c.Logging.Format)

	require.NoError(t, c.Validate())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearEnv(t, "BLOCKMOVER_STREAM_COUNT", "BLOCKMOVER_OFFLOAD_ENABLED", "BLOCKMOVER_LOG_LEVEL")

	os.Setenv("BLOCKMOVER_STREAM_COUNT", "8")
	os.Setenv("BLOCKMOVER_OFFLOAD_ENABLED", "true")
	os.Setenv("BLOCKMOVER_LOG_LEVEL", "debug")

	c := LoadFromEnv()
	assert.Equal(t, 8, c.Device.StreamCount)
	assert.True(t, c.Runtime.OffloadEnabled)
	assert.Equal(t, "debug", c.Logging.Level)
}

func TestValidateRejectsNonPositiveStreamCount(t *testing.T) {
	c := &Config{Device: DeviceConfig{StreamCount: 0}, Logging: LoggingConfig{Level: "info"}}
	assert.Error(t, c.Validate())
}

func TestValidateRejectsZeroWorkersWhenOffloadEnabled(t *testing.T) {
	c := &Config{
		Device:  DeviceConfig{StreamCount: 1},
		Runtime: RuntimeConfig{OffloadEnabled: true, Workers: 0},
		Logging: LoggingConfig{Level: "info"},
	}
	assert.Error(t, c.Validate())
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	c := &Config{Device: DeviceConfig{StreamCount: 1}, Logging: LoggingConfig{Level: "verbose"}}
	assert.Error(t, c.Validate())
}

func TestStringIncludesKeyFields(t *testing.T) {
	c := &Config{
		Disk:    DiskConfig{Dir: "/tmp/blocks"},
		Device:  DeviceConfig{DefaultDeviceID: 2, StreamCount: 3},
		Runtime: RuntimeConfig{OffloadEnabled: true, Workers: 5},
		Logging: LoggingConfig{Level: "warn", Format: "json"},
	}
	s := c.String()
	assert.Contains(t, s, "/tmp/blocks")
	assert.Contains(t, s, "warn/json")
}
