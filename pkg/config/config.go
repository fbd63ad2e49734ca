package config

import "time"

// Config is the root configuration structure for banker.
type Config struct {
	// Engine selects how requests are evaluated.
	Engine EngineConfig `yaml:"engine"`

	// Scenario names the scenario file served by "banker serve" and whether
	// it is watched for changes.
	Scenario ScenarioConfig `yaml:"scenario"`

	// Server contains HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Audit contains the periodic invariant audit schedule.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig configures request evaluation.
type EngineConfig struct {
	// Policy is "canonical" or "available_only".
	// Default: "canonical"
	Policy string `yaml:"policy"`
}

// ScenarioConfig configures the served scenario.
type ScenarioConfig struct {
	// Path is the scenario file (.txt or .yaml).
	Path string `yaml:"path"`

	// Watch reloads the scenario when the file changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce delays a reload until the file has been quiet this long.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`

	// AllowReshape lets a reload change the process or resource count.
	// Default: false
	AllowReshape bool `yaml:"allow_reshape"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes limits request bodies.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// AuditConfig configures the periodic audit.
type AuditConfig struct {
	// Schedule is a cron expression or descriptor ("@every 30s").
	// An empty schedule disables the audit.
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled exposes metrics on Path.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "banker"
	Namespace string `yaml:"namespace"`
}
