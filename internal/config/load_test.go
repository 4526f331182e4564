package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets up environment variables for testing
func setupEnv(t *testing.T, envVars map[string]string) func() {
	// Save current environment values
	originalValues := make(map[string]string)
	for name := range envVars {
		originalValues[name] = os.Getenv(name)
	}

	// Set new environment variables
	for name, value := range envVars {
		err := os.Setenv(name, value)
		require.NoError(t, err, "Failed to set environment variable %s", name)
	}

	// Return cleanup function
	return func() {
		// Restore original environment
		for name, value := range originalValues {
			if value == "" {
				os.Unsetenv(name)
			} else {
				os.Setenv(name, value)
			}
		}
	}
}

// TestLoadDefaults verifies that the Load function sets the expected default values
// when no environment variables are set.
func TestLoadDefaults(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"IMGBATCH_JOBS_WORKER_COUNT":       "",
		"IMGBATCH_JOBS_PROGRESS_THRESHOLD": "",
		"IMGBATCH_UI_SUCCESS_CLOSE_DELAY":  "",
		"IMGBATCH_LOG_LEVEL":               "",
		"IMGBATCH_METRICS_ADDR":            "",
	})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg, "Load() should return a non-nil config")
	assert.Equal(t, 2, cfg.Jobs.WorkerCount, "Default worker count should be 2")
	assert.InDelta(t, 0.1, cfg.Jobs.ProgressThreshold, 1e-9, "Default progress threshold should be 0.1")
	assert.Equal(t, 1500*time.Millisecond, cfg.UI.SuccessCloseDelay)
	assert.Equal(t, "info", cfg.Log.Level, "Default log level should be 'info'")
	assert.Empty(t, cfg.Metrics.Addr, "Metrics endpoint should be disabled by default")
}

// TestLoadFromEnv verifies that the Load function correctly reads values from environment variables.
func TestLoadFromEnv(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"IMGBATCH_JOBS_WORKER_COUNT":       "4",
		"IMGBATCH_JOBS_PROGRESS_THRESHOLD": "0.25",
		"IMGBATCH_UI_SUCCESS_CLOSE_DELAY":  "3s",
		"IMGBATCH_LOG_LEVEL":               "debug",
		"IMGBATCH_METRICS_ADDR":            "127.0.0.1:9102",
	})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with valid environment variables")
	require.NotNil(t, cfg)
	assert.Equal(t, 4, cfg.Jobs.WorkerCount)
	assert.InDelta(t, 0.25, cfg.Jobs.ProgressThreshold, 1e-9)
	assert.Equal(t, 3*time.Second, cfg.UI.SuccessCloseDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9102", cfg.Metrics.Addr)
}

func TestLoadFromFile(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"IMGBATCH_JOBS_WORKER_COUNT": "",
		"IMGBATCH_LOG_LEVEL":         "warn",
	})
	defer cleanup()

	path := filepath.Join(t.TempDir(), "imgbatch.yaml")
	content := []byte("jobs:\n  worker_count: 3\nlog:\n  level: error\nui:\n  success_close_delay: 250ms\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Jobs.WorkerCount, "file value should be used")
	assert.Equal(t, "warn", cfg.Log.Level, "environment should override the file")
	assert.Equal(t, 250*time.Millisecond, cfg.UI.SuccessCloseDelay)
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

// TestLoadValidationErrors verifies that the Load function correctly validates the configuration.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "Zero workers",
			envVars: map[string]string{"IMGBATCH_JOBS_WORKER_COUNT": "0"},
		},
		{
			name:    "Too many workers",
			envVars: map[string]string{"IMGBATCH_JOBS_WORKER_COUNT": "500"},
		},
		{
			name:    "Threshold above one",
			envVars: map[string]string{"IMGBATCH_JOBS_PROGRESS_THRESHOLD": "1.5"},
		},
		{
			name:    "Invalid log level",
			envVars: map[string]string{"IMGBATCH_LOG_LEVEL": "chatty"},
		},
		{
			name:    "Invalid metrics address",
			envVars: map[string]string{"IMGBATCH_METRICS_ADDR": "not an address"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanup := setupEnv(t, tc.envVars)
			defer cleanup()

			cfg, err := Load()

			assert.ErrorIs(t, err, ErrInvalidConfig, "Load() should return a validation error")
			assert.Nil(t, cfg, "Config should be nil when an error occurs")
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}
