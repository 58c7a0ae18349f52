package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.Detector.ConfidenceThreshold != 0.2 {
		t.Errorf("expected default confidence threshold 0.2, got %f", cfg.Detector.ConfidenceThreshold)
	}
	if cfg.Detector.InputSize != 640 {
		t.Errorf("expected default input size 640, got %d", cfg.Detector.InputSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Vision.Provider = "claude" },
			wantErr: true,
		},
		{
			name:    "negative threshold",
			mutate:  func(c *Config) { c.Detector.ConfidenceThreshold = -0.1 },
			wantErr: true,
		},
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.Detector.ConfidenceThreshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "zero input size",
			mutate:  func(c *Config) { c.Detector.InputSize = 0 },
			wantErr: true,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Pipeline.MaxConcurrentPages = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestManagerReload(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig := func(threshold string) {
		t.Helper()
		content := "detector:\n  confidence_threshold: " + threshold + "\n"
		if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	writeConfig("0.3")

	mgr, err := NewManager(cfgPath)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if got := mgr.Get().Detector.ConfidenceThreshold; got != 0.3 {
		t.Fatalf("ConfidenceThreshold = %v, want 0.3", got)
	}

	var observed float64
	mgr.OnChange(func(c *Config) { observed = c.Detector.ConfidenceThreshold })

	writeConfig("0.55")
	mgr.reload()

	if got := mgr.Get().Detector.ConfidenceThreshold; got != 0.55 {
		t.Errorf("ConfidenceThreshold after reload = %v, want 0.55", got)
	}
	if observed != 0.55 {
		t.Errorf("callback observed %v, want 0.55", observed)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("DOCDATA_TEST_KEY", "secret-value")

	t.Run("resolves reference", func(t *testing.T) {
		got := ResolveEnvVars("${DOCDATA_TEST_KEY}")
		if got != "secret-value" {
			t.Errorf("ResolveEnvVars() = %q, want %q", got, "secret-value")
		}
	})

	t.Run("plain value passes through", func(t *testing.T) {
		got := ResolveEnvVars("literal-key")
		if got != "literal-key" {
			t.Errorf("ResolveEnvVars() = %q, want %q", got, "literal-key")
		}
	})

	t.Run("missing variable resolves empty", func(t *testing.T) {
		got := ResolveEnvVars("${DOCDATA_DOES_NOT_EXIST}")
		if got != "" {
			t.Errorf("ResolveEnvVars() = %q, want empty", got)
		}
	})

	t.Run("embedded reference", func(t *testing.T) {
		got := ResolveEnvVars("prefix-${DOCDATA_TEST_KEY}-suffix")
		if got != "prefix-secret-value-suffix" {
			t.Errorf("ResolveEnvVars() = %q", got)
		}
	})
}

func TestVisionConfigAPIKey(t *testing.T) {
	t.Setenv("DOCDATA_TEST_OPENAI", "openai-key")
	t.Setenv("DOCDATA_TEST_GEMINI", "gemini-key")

	v := VisionConfig{
		Provider:  "openai",
		OpenAIKey: "${DOCDATA_TEST_OPENAI}",
		GeminiKey: "${DOCDATA_TEST_GEMINI}",
	}
	if got := v.APIKey(); got != "openai-key" {
		t.Errorf("APIKey() = %q, want openai-key", got)
	}

	v.Provider = "gemini"
	if got := v.APIKey(); got != "gemini-key" {
		t.Errorf("APIKey() = %q, want gemini-key", got)
	}

	v.Provider = "unknown"
	if got := v.APIKey(); got != "" {
		t.Errorf("APIKey() = %q, want empty for unknown provider", got)
	}
}
