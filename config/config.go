// Package config provides configuration management for the traffic light
// simulator.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Lights is the simulation configuration.
	Lights LightsConfig `mapstructure:"lights" validate:"required"`

	// Notify selects where transitions are published besides each light's queue.
	Notify NotifyConfig `mapstructure:"notify"`

	// Metrics is the Prometheus configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the OpenTelemetry configuration.
	Tracing TracingConfig `mapstructure:"tracing"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"env"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the output format (json, text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is stdout, stderr or a file path.
	Output string `mapstructure:"output"`
}

// LightsConfig holds the simulation settings.
type LightsConfig struct {
	// Count is the number of lights to run.
	Count int `mapstructure:"count" validate:"min=1,max=1000"`

	// Waiters is the number of goroutines waiting for green on each light.
	Waiters int `mapstructure:"waiters" validate:"min=0,max=10000"`

	// IDPrefix names lights <prefix>-<n>.
	IDPrefix string `mapstructure:"id_prefix" validate:"required"`

	// MinCycle is the shortest phase duration.
	MinCycle time.Duration `mapstructure:"min_cycle" validate:"gt=0"`

	// MaxCycle is the longest phase duration.
	MaxCycle time.Duration `mapstructure:"max_cycle" validate:"gt=0,gtefield=MinCycle"`

	// Throttle is the pause after each published phase.
	Throttle time.Duration `mapstructure:"throttle" validate:"gt=0"`
}

// NotifyConfig holds transition publishing settings.
type NotifyConfig struct {
	// Type is the publisher (none, local, redis).
	Type string `mapstructure:"type" validate:"oneof=none local redis"`

	// BufferSize is the per-subscriber buffer of the local bus.
	BufferSize int `mapstructure:"buffer_size" validate:"min=1"`

	// ChannelPrefix is prepended to the light id to form the Redis channel.
	ChannelPrefix string `mapstructure:"channel_prefix"`

	// Redis is the Redis connection used when Type is redis.
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	// Address is the Redis server address.
	Address string `mapstructure:"address"`

	// Password is the Redis password.
	Password string `mapstructure:"password"`

	// DB is the Redis database number.
	DB int `mapstructure:"db" validate:"min=0"`

	// DialTimeout bounds connection setup.
	DialTimeout time.Duration `mapstructure:"dial_timeout" validate:"gte=0"`
}

// MetricsConfig holds observability settings.
type MetricsConfig struct {
	// Enabled enables the metrics endpoint.
	Enabled bool `mapstructure:"enabled"`

	// Path is the metrics endpoint path.
	Path string `mapstructure:"path"`

	// Port is the metrics server port.
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// TracingConfig holds distributed tracing settings.
type TracingConfig struct {
	// Enabled enables distributed tracing.
	Enabled bool `mapstructure:"enabled"`

	// Exporter is the span exporter. Only otlp is supported.
	Exporter string `mapstructure:"exporter" validate:"oneof=otlp"`

	// Endpoint is the OTLP/gRPC collector endpoint.
	Endpoint string `mapstructure:"endpoint"`

	// Headers are sent with every export request.
	Headers map[string]string `mapstructure:"headers"`

	// Insecure disables TLS to the collector.
	Insecure bool `mapstructure:"insecure"`

	// Sampler is always_on, always_off or ratio (parent based, SampleRate).
	Sampler string `mapstructure:"sampler" validate:"oneof=always_on always_off ratio"`

	// SampleRate is the fraction of traces to sample (0.0-1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`

	// Timeout bounds each export.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// String returns a string representation of the configuration (without sensitive data).
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Env: %s, Lights: %d, Notify: %s}",
		c.App.Name, c.App.Environment, c.Lights.Count, c.Notify.Type)
}
