package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidatePort validates a TCP port number
func (v *Validator) ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// ValidateAddr validates a host:port listen address
func (v *Validator) ValidateAddr(addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	return nil
}

// ValidateSchedule validates a cron expression or @every descriptor.
// An empty schedule is valid and disables the job.
func (v *Validator) ValidateSchedule(schedule string) error {
	if schedule == "" {
		return nil
	}
	if _, err := scheduleParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if strings.TrimSpace(cfg.Distribution) == "" {
		errors = append(errors, fmt.Errorf("distribution is required"))
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}
	if cfg.Logging.MaxSize < 0 {
		errors = append(errors, fmt.Errorf("logging.max_size must be >= 0"))
	}
	if cfg.Logging.MaxAge < 0 {
		errors = append(errors, fmt.Errorf("logging.max_age must be >= 0"))
	}

	if cfg.Routing.ResultCacheSize < 0 {
		errors = append(errors, fmt.Errorf("routing.result_cache_size must be >= 0"))
	}

	if cfg.Metrics.Enabled {
		if err := v.ValidateAddr(cfg.Metrics.Addr); err != nil {
			errors = append(errors, fmt.Errorf("metrics.addr: %w", err))
		}
	}

	if err := v.ValidatePort(cfg.Gateway.Port); err != nil {
		errors = append(errors, fmt.Errorf("gateway.port: %w", err))
	}
	if cfg.Gateway.RequestsPerSecond <= 0 {
		errors = append(errors, fmt.Errorf("gateway.requests_per_second must be > 0"))
	}
	if cfg.Gateway.Burst < 1 {
		errors = append(errors, fmt.Errorf("gateway.burst must be >= 1"))
	}
	if cfg.Gateway.MaxMessageBytes < 0 {
		errors = append(errors, fmt.Errorf("gateway.max_message_bytes must be >= 0"))
	}

	if cfg.Audit.Enabled && strings.TrimSpace(cfg.Audit.File) == "" {
		errors = append(errors, fmt.Errorf("audit.file is required when audit is enabled"))
	}

	if cfg.Tracing.Enabled && strings.TrimSpace(cfg.Tracing.ServiceName) == "" {
		errors = append(errors, fmt.Errorf("tracing.service_name is required when tracing is enabled"))
	}

	if err := v.ValidateSchedule(cfg.Status.Schedule); err != nil {
		errors = append(errors, fmt.Errorf("status.schedule: %w", err))
	}

	return errors
}
