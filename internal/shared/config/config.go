package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Accepted values for the bus settings.
const (
	FailurePolicyFailFast = "fail_fast"
	FailurePolicyContinue = "continue"

	DispatchSequential = "sequential"
	DispatchConcurrent = "concurrent"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv   string
	LogLevel string
	EventBus EventBusConfig
	Metrics  MetricsConfig
}

type EventBusConfig struct {
	FailurePolicy string
	AsyncDispatch string
}

type MetricsConfig struct {
	Addr string // empty disables the endpoint
}

// IsDev reports whether human-readable logging should be used.
func (c *Config) IsDev() bool { return c.AppEnv == "dev" }

// Load loads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	bindings := map[string]string{
		"app.env":                 "APP_ENV",
		"log.level":               "LOG_LEVEL",
		"eventbus.failure_policy": "EVENTBUS_FAILURE_POLICY",
		"eventbus.async_dispatch": "EVENTBUS_ASYNC_DISPATCH",
		"metrics.addr":            "METRICS_ADDR",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	v.SetDefault("app.env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("eventbus.failure_policy", FailurePolicyFailFast)
	v.SetDefault("eventbus.async_dispatch", DispatchSequential)

	cfg := Config{
		AppEnv:   strings.ToLower(v.GetString("app.env")),
		LogLevel: strings.ToLower(v.GetString("log.level")),
		EventBus: EventBusConfig{
			FailurePolicy: strings.ToLower(v.GetString("eventbus.failure_policy")),
			AsyncDispatch: strings.ToLower(v.GetString("eventbus.async_dispatch")),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString("metrics.addr"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.EventBus.FailurePolicy {
	case FailurePolicyFailFast, FailurePolicyContinue:
	default:
		return fmt.Errorf("EVENTBUS_FAILURE_POLICY must be %q or %q, got %q",
			FailurePolicyFailFast, FailurePolicyContinue, c.EventBus.FailurePolicy)
	}

	switch c.EventBus.AsyncDispatch {
	case DispatchSequential, DispatchConcurrent:
	default:
		return fmt.Errorf("EVENTBUS_ASYNC_DISPATCH must be %q or %q, got %q",
			DispatchSequential, DispatchConcurrent, c.EventBus.AsyncDispatch)
	}

	return nil
}
