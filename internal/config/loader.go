package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by the loader,
// e.g. WAYNEOS_GATEWAY_PORT for gateway.port
const EnvPrefix = "WAYNEOS"

// Loader handles configuration loading
type Loader struct {
	configPath string
	overrides  map[string]interface{}
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		overrides:  make(map[string]interface{}),
	}
}

// Override sets a value that wins over the file and the environment.
// The CLI uses it for flags the user set explicitly.
func (l *Loader) Override(key string, value interface{}) *Loader {
	l.overrides[key] = value
	return l
}

// Load reads defaults, then the config file if present, then WAYNEOS_*
// environment variables, then overrides
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := l.GetConfigPath()
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	for key, value := range l.overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".wayneos")
	}

	if cfg.Audit.Enabled && cfg.Audit.File == "" {
		cfg.Audit.File = filepath.Join(cfg.DataDir, "audit.log")
	}

	return cfg, nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wayneos", "kernel.json")
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}

// setDefaults registers every key so the environment can override it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("distribution", d.Distribution)
	v.SetDefault("data_dir", d.DataDir)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("logging.pretty", d.Logging.Pretty)
	v.SetDefault("logging.redaction", d.Logging.Redaction)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("routing.rules_file", d.Routing.RulesFile)
	v.SetDefault("routing.result_cache_size", d.Routing.ResultCacheSize)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)

	v.SetDefault("gateway.host", d.Gateway.Host)
	v.SetDefault("gateway.port", d.Gateway.Port)
	v.SetDefault("gateway.requests_per_second", d.Gateway.RequestsPerSecond)
	v.SetDefault("gateway.burst", d.Gateway.Burst)
	v.SetDefault("gateway.max_message_bytes", d.Gateway.MaxMessageBytes)

	v.SetDefault("audit.enabled", d.Audit.Enabled)
	v.SetDefault("audit.file", d.Audit.File)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)

	v.SetDefault("status.schedule", d.Status.Schedule)

	v.SetDefault("agents.seed", d.Agents.Seed)
}
