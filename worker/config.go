package worker

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the tuning constants of a stage's run loop. All values have
// usable defaults; FromEnv overrides them from FLOWLINE_-prefixed
// environment variables.
type Config struct {
	// IdleSleep is how long the loop sleeps after an idle poll that did
	// not decide to stop. It is the only unconditional suspension point in
	// the main loop.
	IdleSleep time.Duration `envconfig:"WORKER_IDLE_SLEEP" default:"100ms"`

	// QuitCheckTickInterval throttles cancellation sampling: the shared
	// signal is read only when the tick counter is a multiple of this
	// value, on the very first check, or when QuitCheckInterval has
	// elapsed since the last sample.
	QuitCheckTickInterval int64 `envconfig:"QUIT_CHECK_TICK_INTERVAL" default:"1000"`

	// QuitCheckInterval bounds the wall-clock latency of observing
	// cancellation regardless of tick progress.
	QuitCheckInterval time.Duration `envconfig:"QUIT_CHECK_INTERVAL" default:"2s"`

	// ProgressLogTickInterval controls how often the loop emits a
	// debug-level progress entry while processing items.
	ProgressLogTickInterval int64 `envconfig:"PROGRESS_LOG_TICK_INTERVAL" default:"10000"`

	// LogDrainPollInterval is how often the shutdown path re-checks the
	// log channel's emptiness while waiting for the drain guarantee.
	LogDrainPollInterval time.Duration `envconfig:"SHUTDOWN_LOG_DRAIN_POLL_INTERVAL" default:"50ms"`
}

// DefaultConfig returns the built-in tuning values.
func DefaultConfig() Config {
	return Config{
		IdleSleep:               100 * time.Millisecond,
		QuitCheckTickInterval:   1000,
		QuitCheckInterval:       2 * time.Second,
		ProgressLogTickInterval: 10000,
		LogDrainPollInterval:    50 * time.Millisecond,
	}
}

// FromEnv loads the configuration from FLOWLINE_-prefixed environment
// variables, falling back to the defaults above.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("flowline", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load worker config: %w", err)
	}
	return cfg, nil
}

// validate normalizes nonsensical values so the loop cannot divide by zero
// or spin without sleeping.
func (c *Config) validate() {
	if c.IdleSleep <= 0 {
		c.IdleSleep = time.Millisecond
	}
	if c.QuitCheckTickInterval <= 0 {
		c.QuitCheckTickInterval = 1
	}
	if c.QuitCheckInterval <= 0 {
		c.QuitCheckInterval = time.Second
	}
	if c.ProgressLogTickInterval <= 0 {
		c.ProgressLogTickInterval = 1
	}
	if c.LogDrainPollInterval <= 0 {
		c.LogDrainPollInterval = time.Millisecond
	}
}
