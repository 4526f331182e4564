package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Jobs    JobsConfig    `mapstructure:"jobs" validate:"required"`
	UI      UIConfig      `mapstructure:"ui" validate:"required"`
	Log     LogConfig     `mapstructure:"log" validate:"required"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// JobsConfig contains the job manager settings.
type JobsConfig struct {
	// WorkerCount is the number of goroutines executing job actions
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0,lte=64"`

	// ProgressThreshold is the minimum progress delta between two progress
	// notifications of the same job. Reaching 1.0 always notifies.
	ProgressThreshold float64 `mapstructure:"progress_threshold" validate:"gte=0,lte=1"`
}

// UIConfig contains settings for the progress surface of the shell.
type UIConfig struct {
	// SuccessCloseDelay is how long a fully successful batch keeps its
	// progress view open. Canceled or partially skipped batches close at once.
	SuccessCloseDelay time.Duration `mapstructure:"success_close_delay" validate:"gte=0"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// MetricsConfig contains the optional Prometheus endpoint settings.
type MetricsConfig struct {
	// Addr is the listen address of the metrics endpoint; empty disables it
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}
