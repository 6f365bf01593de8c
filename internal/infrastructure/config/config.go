// Package config provides configuration structs and utilities for the ctxprobe application.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
)

// Config represents the root configuration for the ctxprobe application.
type Config struct {
	Providers ProviderConfigs `yaml:"providers"`
	Defaults  probe.Config    `yaml:"defaults"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	History   HistoryConfig   `yaml:"history"`
	Presets   PresetsConfig   `yaml:"presets"`
}

// ProviderConfigs holds configuration for all supported providers.
type ProviderConfigs struct {
	Ollama    OllamaConfig `yaml:"ollama"`
	Anthropic CloudConfig  `yaml:"anthropic"`
	OpenAI    CloudConfig  `yaml:"openai"`
}

// OllamaConfig holds configuration for the Ollama local provider.
type OllamaConfig struct {
	URL     string        `yaml:"url"`
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
	NumCtx  int           `yaml:"num_ctx"` // server-side context size pinned per request
}

// CloudConfig holds configuration for cloud providers. API keys fall
// back to the provider's conventional environment variable when the
// yaml field is empty.
type CloudConfig struct {
	APIKey    string        `yaml:"api_key"`
	APIKeyEnv string        `yaml:"api_key_env,omitempty"`
	BaseURL   string        `yaml:"base_url,omitempty"` // Optional custom endpoint (e.g., for proxies)
	Enabled   bool          `yaml:"enabled"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ResolveAPIKey returns the configured key, or the value of the key
// environment variable when the yaml field is empty.
func (c *CloudConfig) ResolveAPIKey(defaultEnv string) string {
	if c.APIKey != "" {
		return c.APIKey
	}
	env := c.APIKeyEnv
	if env == "" {
		env = defaultEnv
	}
	return os.Getenv(env)
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`       // Whether tracing is enabled
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // OTLP collector endpoint
	SampleRate   float64 `yaml:"sample_rate"`   // Sampling rate (0.0 to 1.0)
	ServiceName  string  `yaml:"service_name"`  // Service name for traces
}

// HistoryConfig holds configuration for probe run retention.
type HistoryConfig struct {
	Enabled        bool   `yaml:"enabled"`         // Whether persistent history is enabled
	Path           string `yaml:"path"`            // SQLite database path
	MemoryCapacity int    `yaml:"memory_capacity"` // runs retained in memory per session
}

// PresetsConfig holds configuration for probe presets.
type PresetsConfig struct {
	Directory string `yaml:"directory"` // user preset directory
	Watch     bool   `yaml:"watch"`     // reload presets on file changes
}

// Default configuration values.
const (
	DefaultOllamaURL       = "http://localhost:11434"
	DefaultOllamaNumCtx    = 131072
	DefaultTimeout         = 5 * time.Minute
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultHistoryPath     = "~/.ctxprobe/history.db"
	DefaultPresetDirectory = "~/.ctxprobe/presets"

	DefaultTracingEnabled      = false
	DefaultTracingExporterType = "none"
	DefaultTracingSampleRate   = 1.0
	DefaultTracingServiceName  = "ctxprobe"

	// Environment variables consulted for cloud API keys.
	AnthropicKeyEnv = "ANTHROPIC_API_KEY"
	OpenAIKeyEnv    = "OPENAI_API_KEY"
)

// Valid log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid log formats.
var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Valid tracing exporter types.
var validTracingExporterTypes = map[string]bool{
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

// NewDefaultConfig creates a new Config with sensible default values.
func NewDefaultConfig() *Config {
	defaults := probe.DefaultConfig("")

	return &Config{
		Providers: ProviderConfigs{
			Ollama: OllamaConfig{
				URL:     DefaultOllamaURL,
				Enabled: true,
				Timeout: DefaultTimeout,
				NumCtx:  DefaultOllamaNumCtx,
			},
			Anthropic: CloudConfig{
				Enabled: false,
				Timeout: DefaultTimeout,
			},
			OpenAI: CloudConfig{
				Enabled: false,
				Timeout: DefaultTimeout,
			},
		},
		Defaults: defaults,
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Tracing: TracingConfig{
			Enabled:      DefaultTracingEnabled,
			ExporterType: DefaultTracingExporterType,
			SampleRate:   DefaultTracingSampleRate,
			ServiceName:  DefaultTracingServiceName,
		},
		History: HistoryConfig{
			Enabled:        true,
			Path:           DefaultHistoryPath,
			MemoryCapacity: 50,
		},
		Presets: PresetsConfig{
			Directory: DefaultPresetDirectory,
			Watch:     false,
		},
	}
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Providers.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("providers: %w", err))
	}

	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}

	if err := c.History.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("history: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the LoggingConfig is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	if l.Level != "" && !validLogLevels[l.Level] {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", l.Level))
	}

	if l.Format != "" && !validLogFormats[l.Format] {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be one of json, text", l.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the ProviderConfigs is valid.
func (p *ProviderConfigs) Validate() error {
	var errs []error

	if err := p.Ollama.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ollama: %w", err))
	}

	if err := p.Anthropic.Validate("anthropic", AnthropicKeyEnv); err != nil {
		errs = append(errs, err)
	}

	if err := p.OpenAI.Validate("openai", OpenAIKeyEnv); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the OllamaConfig is valid.
func (o *OllamaConfig) Validate() error {
	var errs []error

	if o.Enabled && o.URL == "" {
		errs = append(errs, errors.New("url is required when enabled"))
	}

	if o.Timeout < 0 {
		errs = append(errs, errors.New("timeout must be non-negative"))
	}

	if o.NumCtx < 0 {
		errs = append(errs, errors.New("num_ctx must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the CloudConfig is valid.
func (c *CloudConfig) Validate(providerName, defaultEnv string) error {
	var errs []error

	if c.Enabled && c.ResolveAPIKey(defaultEnv) == "" {
		errs = append(errs, fmt.Errorf("%s: api_key (or %s) is required when enabled", providerName, defaultEnv))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%s: timeout must be non-negative", providerName))
	}

	if c.BaseURL != "" {
		parsedURL, err := url.Parse(c.BaseURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid base_url: %w", providerName, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errs = append(errs, fmt.Errorf("%s: base_url must use http or https scheme", providerName))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the TracingConfig is valid.
func (t *TracingConfig) Validate() error {
	var errs []error

	if t.Enabled {
		if t.ExporterType != "" && !validTracingExporterTypes[t.ExporterType] {
			errs = append(errs, fmt.Errorf("invalid exporter_type %q: must be one of none, stdout, otlp", t.ExporterType))
		}
		if t.ExporterType == "otlp" && t.OTLPEndpoint == "" {
			errs = append(errs, errors.New("otlp_endpoint is required when exporter_type is 'otlp'"))
		}
		if t.SampleRate < 0 || t.SampleRate > 1 {
			errs = append(errs, errors.New("sample_rate must be between 0.0 and 1.0"))
		}
		if t.ServiceName == "" {
			errs = append(errs, errors.New("service_name is required when tracing is enabled"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the HistoryConfig is valid.
func (h *HistoryConfig) Validate() error {
	var errs []error

	if h.Enabled && h.Path == "" {
		errs = append(errs, errors.New("path is required when persistent history is enabled"))
	}

	if h.MemoryCapacity < 0 {
		errs = append(errs, errors.New("memory_capacity must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
