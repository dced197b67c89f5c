package engine

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/germanamz/statai/pkg/modeladapter"
	"github.com/germanamz/statai/pkg/providers/deepseek"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration shared by the statai commands.
type Config struct {
	Provider   ProviderConfig   `yaml:"provider"`
	Retry      RetryConfig      `yaml:"retry"`
	Escalation EscalationConfig `yaml:"escalation"`
	KeyFiles   []string         `yaml:"key_files"` // Replaces the default key file candidates when set.
}

// ProviderConfig selects the chat-completion backend.
type ProviderConfig struct {
	Kind    string `yaml:"kind"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// RetryConfig controls transport-level retries of transient HTTP statuses.
type RetryConfig struct {
	Total              int    `yaml:"total"`
	BackoffFactor      string `yaml:"backoff_factor"` // Duration string (e.g. "2s").
	BackoffMax         string `yaml:"backoff_max"`
	StatusForcelist    []int  `yaml:"status_forcelist"`
	RespectRetryAfter  bool   `yaml:"respect_retry_after"`
	RetryConnectErrors bool   `yaml:"retry_connect_errors"` // Off by default.
}

// EscalationConfig controls the single longer-timeout retry after a timeout.
type EscalationConfig struct {
	FirstTimeout  string `yaml:"first_timeout"`
	RetryDelay    string `yaml:"retry_delay"`
	SecondTimeout string `yaml:"second_timeout"` // "0s" disables the second attempt.
}

// DefaultConfig returns the built-in configuration used when no file is given.
func DefaultConfig() Config {
	rp := modeladapter.DefaultRetryPolicy()
	esc := modeladapter.DefaultEscalation()

	return Config{
		Provider: ProviderConfig{
			Kind:    deepseekKind,
			BaseURL: deepseek.DefaultBaseURL,
			Model:   deepseek.DefaultModel,
		},
		Retry: RetryConfig{
			Total:             rp.Total,
			BackoffFactor:     rp.BackoffFactor.String(),
			BackoffMax:        rp.BackoffMax.String(),
			StatusForcelist:   rp.StatusForcelist,
			RespectRetryAfter: rp.RespectRetryAfter,
		},
		Escalation: EscalationConfig{
			FirstTimeout:  esc.FirstTimeout.String(),
			RetryDelay:    esc.RetryDelay.String(),
			SecondTimeout: esc.SecondTimeout.String(),
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig, so a file only needs
// the keys it overrides. Environment variables referenced as ${VAR} or $VAR
// are expanded before parsing.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	return cfg, nil
}

// LoadConfigOrDefault loads path, or returns DefaultConfig when path is empty.
func LoadConfigOrDefault(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Provider.Kind == "" {
		return errors.New("engine: config: provider kind is required")
	}
	if _, ok := getFactory(c.Provider.Kind); !ok {
		return fmt.Errorf("engine: config: unknown provider kind %q", c.Provider.Kind)
	}

	if _, err := c.Retry.Policy(); err != nil {
		return err
	}
	if _, err := c.Escalation.Policy(); err != nil {
		return err
	}

	return nil
}

// Policy converts the retry section into a transport retry policy.
func (r RetryConfig) Policy() (modeladapter.RetryPolicy, error) {
	if r.Total < 0 {
		return modeladapter.RetryPolicy{}, fmt.Errorf("engine: config: retry total must not be negative, got %d", r.Total)
	}

	factor, err := parseDuration("retry.backoff_factor", r.BackoffFactor)
	if err != nil {
		return modeladapter.RetryPolicy{}, err
	}
	maxWait, err := parseDuration("retry.backoff_max", r.BackoffMax)
	if err != nil {
		return modeladapter.RetryPolicy{}, err
	}

	for _, code := range r.StatusForcelist {
		if code < 100 || code > 599 {
			return modeladapter.RetryPolicy{}, fmt.Errorf("engine: config: retry status %d out of range", code)
		}
	}

	return modeladapter.RetryPolicy{
		Total:              r.Total,
		BackoffFactor:      factor,
		BackoffMax:         maxWait,
		StatusForcelist:    r.StatusForcelist,
		Methods:            []string{http.MethodPost},
		RespectRetryAfter:  r.RespectRetryAfter,
		RetryConnectErrors: r.RetryConnectErrors,
	}, nil
}

// Policy converts the escalation section into adapter settings.
func (e EscalationConfig) Policy() (modeladapter.Escalation, error) {
	first, err := parseDuration("escalation.first_timeout", e.FirstTimeout)
	if err != nil {
		return modeladapter.Escalation{}, err
	}
	delay, err := parseDuration("escalation.retry_delay", e.RetryDelay)
	if err != nil {
		return modeladapter.Escalation{}, err
	}
	second, err := parseDuration("escalation.second_timeout", e.SecondTimeout)
	if err != nil {
		return modeladapter.Escalation{}, err
	}

	return modeladapter.Escalation{FirstTimeout: first, RetryDelay: delay, SecondTimeout: second}, nil
}

// parseDuration parses a non-negative duration. An empty value is zero.
func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("engine: config: invalid %s %q: %w", field, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("engine: config: %s must not be negative, got %s", field, s)
	}

	return d, nil
}
