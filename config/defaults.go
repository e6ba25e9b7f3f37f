package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "trafficlight",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Lights: LightsConfig{
			Count:    1,
			Waiters:  1,
			IDPrefix: "light",
			MinCycle: 4000 * time.Millisecond,
			MaxCycle: 6000 * time.Millisecond,
			Throttle: 1 * time.Millisecond,
		},
		Notify: NotifyConfig{
			Type:          "none",
			BufferSize:    64,
			ChannelPrefix: "trafficlight:phase:",
			Redis: RedisConfig{
				Address:     "localhost:6379",
				Password:    "",
				DB:          0,
				DialTimeout: 5 * time.Second,
			},
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
			Port:    9091,
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Exporter:   "otlp",
			Endpoint:   "localhost:4317",
			Insecure:   true,
			Sampler:    "ratio",
			SampleRate: 1.0,
			Timeout:    10 * time.Second,
		},
	}
}
