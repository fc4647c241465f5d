// Package config loads the analyzer configuration from the environment
// and validates it before any line processing begins.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/shiimaxx/s3-log-analyzer/internal/alerts"
)

// ConfigurationError indicates a missing or malformed configuration
// value. It aborts the invocation before any file content is touched.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

type Config struct {
	Environment string `env:"ENVIRONMENT" env-default:"prod"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	// AlertTopicARN is optional; without it alert summaries are logged
	// instead of delivered.
	AlertTopicARN string `env:"ALERT_TOPIC_ARN"`

	// MetricNamespace enables CloudWatch metric publication when set.
	MetricNamespace string `env:"METRIC_NAMESPACE"`

	DryRun bool `env:"DRY_RUN" env-default:"false"`

	ErrorRateThreshold    float64 `env:"ERROR_RATE_THRESHOLD" env-default:"0.05"`
	AuthFailureThreshold  int     `env:"AUTH_FAILURE_THRESHOLD" env-default:"10"`
	APIRateLimitThreshold int     `env:"API_RATE_LIMIT_THRESHOLD" env-default:"5"`
	Unusual404Threshold   int     `env:"UNUSUAL_404_THRESHOLD" env-default:"20"`
	SQLInjectionThreshold int     `env:"SQL_INJECTION_THRESHOLD" env-default:"1"`
	XSSThreshold          int     `env:"XSS_THRESHOLD" env-default:"1"`

	MaxStoredDetections int `env:"MAX_STORED_DETECTIONS" env-default:"10"`
	TopIPCount          int `env:"TOP_IP_COUNT" env-default:"5"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, &ConfigurationError{Field: "environment", Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on malformed values.
func (c *Config) Validate() error {
	if c.ErrorRateThreshold < 0 {
		return &ConfigurationError{Field: "ERROR_RATE_THRESHOLD", Reason: fmt.Sprintf("must not be negative, got %v", c.ErrorRateThreshold)}
	}

	intThresholds := []struct {
		field string
		value int
	}{
		{"AUTH_FAILURE_THRESHOLD", c.AuthFailureThreshold},
		{"API_RATE_LIMIT_THRESHOLD", c.APIRateLimitThreshold},
		{"UNUSUAL_404_THRESHOLD", c.Unusual404Threshold},
		{"SQL_INJECTION_THRESHOLD", c.SQLInjectionThreshold},
		{"XSS_THRESHOLD", c.XSSThreshold},
	}
	for _, t := range intThresholds {
		if t.value < 0 {
			return &ConfigurationError{Field: t.field, Reason: fmt.Sprintf("must not be negative, got %d", t.value)}
		}
	}

	if c.MaxStoredDetections <= 0 {
		return &ConfigurationError{Field: "MAX_STORED_DETECTIONS", Reason: fmt.Sprintf("must be positive, got %d", c.MaxStoredDetections)}
	}
	if c.TopIPCount <= 0 {
		return &ConfigurationError{Field: "TOP_IP_COUNT", Reason: fmt.Sprintf("must be positive, got %d", c.TopIPCount)}
	}

	return nil
}

// Thresholds projects the configuration onto the evaluator's threshold
// table.
func (c *Config) Thresholds() alerts.Thresholds {
	return alerts.Thresholds{
		ErrorRate:    c.ErrorRateThreshold,
		AuthFailures: c.AuthFailureThreshold,
		RateLimit:    c.APIRateLimitThreshold,
		Unusual404:   c.Unusual404Threshold,
		SQLInjection: c.SQLInjectionThreshold,
		XSS:          c.XSSThreshold,
	}
}
