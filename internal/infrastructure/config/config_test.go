package config

import (
	"testing"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/testutil"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	testutil.AssertNoError(t, cfg.Validate())
}

func TestLoggingConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggingConfig
		wantErr bool
	}{
		{"valid", LoggingConfig{Level: "debug", Format: "json"}, false},
		{"empty fields allowed", LoggingConfig{}, false},
		{"bad level", LoggingConfig{Level: "verbose"}, true},
		{"bad format", LoggingConfig{Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				testutil.AssertError(t, err)
			} else {
				testutil.AssertNoError(t, err)
			}
		})
	}
}

func TestCloudConfigValidation(t *testing.T) {
	enabled := CloudConfig{Enabled: true, Timeout: time.Minute}
	testutil.AssertError(t, enabled.Validate("anthropic", "CTXPROBE_TEST_MISSING_KEY"))

	enabled.APIKey = "sk-test"
	testutil.AssertNoError(t, enabled.Validate("anthropic", "CTXPROBE_TEST_MISSING_KEY"))

	enabled.BaseURL = "ftp://example.com"
	testutil.AssertError(t, enabled.Validate("anthropic", "CTXPROBE_TEST_MISSING_KEY"))

	enabled.BaseURL = "https://proxy.internal/v1"
	testutil.AssertNoError(t, enabled.Validate("anthropic", "CTXPROBE_TEST_MISSING_KEY"))
}

func TestCloudConfigResolveAPIKeyFromEnv(t *testing.T) {
	t.Setenv("CTXPROBE_TEST_KEY", "sk-from-env")

	cfg := CloudConfig{}
	testutil.AssertEqual(t, cfg.ResolveAPIKey("CTXPROBE_TEST_KEY"), "sk-from-env")

	// An explicit yaml key wins over the environment.
	cfg.APIKey = "sk-explicit"
	testutil.AssertEqual(t, cfg.ResolveAPIKey("CTXPROBE_TEST_KEY"), "sk-explicit")

	// A custom env var overrides the conventional one.
	t.Setenv("MY_CUSTOM_KEY", "sk-custom")
	cfg = CloudConfig{APIKeyEnv: "MY_CUSTOM_KEY"}
	testutil.AssertEqual(t, cfg.ResolveAPIKey("CTXPROBE_TEST_KEY"), "sk-custom")
}

func TestTracingConfigValidation(t *testing.T) {
	cfg := TracingConfig{Enabled: true, ExporterType: "otlp", SampleRate: 1.0, ServiceName: "ctxprobe"}
	testutil.AssertError(t, cfg.Validate())

	cfg.OTLPEndpoint = "localhost:4318"
	testutil.AssertNoError(t, cfg.Validate())

	cfg.SampleRate = 1.5
	testutil.AssertError(t, cfg.Validate())
}

func TestHistoryConfigValidation(t *testing.T) {
	cfg := HistoryConfig{Enabled: true}
	testutil.AssertError(t, cfg.Validate())

	cfg.Path = "/tmp/history.db"
	testutil.AssertNoError(t, cfg.Validate())

	cfg.MemoryCapacity = -1
	testutil.AssertError(t, cfg.Validate())
}
