package config

import (
	"encoding/json"
	"errors"
)

// Config represents the kernel configuration
type Config struct {
	// Distribution selects the agent set
	Distribution string `json:"distribution" mapstructure:"distribution"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
	Routing RoutingConfig `json:"routing" mapstructure:"routing"`
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
	Gateway GatewayConfig `json:"gateway" mapstructure:"gateway"`
	Audit   AuditConfig   `json:"audit" mapstructure:"audit"`
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`
	Status  StatusConfig  `json:"status" mapstructure:"status"`
	Agents  AgentsConfig  `json:"agents" mapstructure:"agents"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"`
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`
	Compress  bool   `json:"compress" mapstructure:"compress"`
}

// RoutingConfig holds intent classification settings
type RoutingConfig struct {
	RulesFile       string `json:"rules_file" mapstructure:"rules_file"`
	ResultCacheSize int    `json:"result_cache_size" mapstructure:"result_cache_size"`
}

// MetricsConfig holds Prometheus exporter settings
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// GatewayConfig holds WebSocket gateway settings
type GatewayConfig struct {
	Host              string  `json:"host" mapstructure:"host"`
	Port              int     `json:"port" mapstructure:"port"`
	RequestsPerSecond float64 `json:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `json:"burst" mapstructure:"burst"`
	MaxMessageBytes   int64   `json:"max_message_bytes" mapstructure:"max_message_bytes"`
}

// AuditConfig holds audit log settings
type AuditConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	File    string `json:"file" mapstructure:"file"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName string `json:"service_name" mapstructure:"service_name"`
}

// StatusConfig holds the periodic status report schedule
type StatusConfig struct {
	Schedule string `json:"schedule" mapstructure:"schedule"`
}

// AgentsConfig holds stub agent settings
type AgentsConfig struct {
	// Seed for simulated data. Zero draws a random seed.
	Seed uint64 `json:"seed" mapstructure:"seed"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Distribution: "wayneos",
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    false,
			Redaction: true,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
		},
		Routing: RoutingConfig{
			ResultCacheSize: 256,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Gateway: GatewayConfig{
			Host:              "127.0.0.1",
			Port:              8765,
			RequestsPerSecond: 20,
			Burst:             20,
			MaxMessageBytes:   1 << 20,
		},
		Audit: AuditConfig{
			Enabled: false,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "wayneos-kernel",
		},
		Status: StatusConfig{
			Schedule: "",
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return errors.Join(NewValidator().ValidateConfig(c)...)
}
