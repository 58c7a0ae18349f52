// Package config handles loading and hot-reloading pipeline configuration.
//
// Components never read environment variables directly: the Config value is
// built once per run and passed to each constructor. API keys may reference
// environment variables with the ${VAR} syntax and are resolved at the point
// the value is handed to a provider.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the explicit configuration value object for one pipeline run.
type Config struct {
	Vision   VisionConfig   `mapstructure:"vision"`
	Detector DetectorConfig `mapstructure:"detector"`
	Splitter SplitterConfig `mapstructure:"splitter"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// VisionConfig configures the vision-language extraction capability.
type VisionConfig struct {
	Provider    string        `mapstructure:"provider"` // "openai" or "gemini"
	OpenAIModel string        `mapstructure:"openai_model"`
	GeminiModel string        `mapstructure:"gemini_model"`
	OpenAIKey   string        `mapstructure:"openai_api_key"`
	GeminiKey   string        `mapstructure:"gemini_api_key"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// DetectorConfig configures the region-detection model client.
type DetectorConfig struct {
	Endpoint            string        `mapstructure:"endpoint"`
	InputSize           int           `mapstructure:"input_size"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRetries          int           `mapstructure:"max_retries"`
}

// SplitterConfig configures document splitting and page rasterization.
type SplitterConfig struct {
	PDFDPI            int           `mapstructure:"pdf_dpi"`
	ConversionTimeout time.Duration `mapstructure:"conversion_timeout"`
	MaxImageDimension int           `mapstructure:"max_image_dimension"`
}

// PipelineConfig configures run orchestration.
type PipelineConfig struct {
	MaxConcurrentPages int `mapstructure:"max_concurrent_pages"`
}

// StorageConfig configures artifact key prefixes. The prefixes mirror the
// bucket layout the downstream workflow engine passes between stages.
type StorageConfig struct {
	ImagesPrefix      string `mapstructure:"images_prefix"`
	RawTextPrefix     string `mapstructure:"raw_text_prefix"`
	CroppedPrefix     string `mapstructure:"cropped_prefix"`
	PageResultsPrefix string `mapstructure:"page_results_prefix"`
	FinalOutputPrefix string `mapstructure:"final_output_prefix"`
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Vision.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown vision provider: %q", c.Vision.Provider)
	}
	if c.Detector.ConfidenceThreshold < 0 || c.Detector.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold out of range: %f", c.Detector.ConfidenceThreshold)
	}
	if c.Detector.InputSize <= 0 {
		return fmt.Errorf("detector input size must be positive: %d", c.Detector.InputSize)
	}
	if c.Pipeline.MaxConcurrentPages <= 0 {
		return fmt.Errorf("max concurrent pages must be positive: %d", c.Pipeline.MaxConcurrentPages)
	}
	return nil
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("vision", defaults.Vision)
	viper.SetDefault("detector", defaults.Detector)
	viper.SetDefault("splitter", defaults.Splitter)
	viper.SetDefault("pipeline", defaults.Pipeline)
	viper.SetDefault("storage", defaults.Storage)

	// Environment variables with DOCDATA_ prefix
	viper.SetEnvPrefix("DOCDATA")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.doc-data")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cm.reload()
	})
	viper.WatchConfig()
}

// reload re-reads the config source and fans the new value out to the
// registered callbacks. Unreadable or unparsable updates keep the
// previous config.
func (cm *Manager) reload() {
	if err := viper.ReadInConfig(); err != nil {
		return
	}
	cfg, err := cm.load()
	if err != nil {
		return
	}

	cm.mu.Lock()
	cm.config = cfg
	callbacks := make([]func(*Config), len(cm.callbacks))
	copy(callbacks, cm.callbacks)
	cm.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// APIKey returns the resolved API key for the configured vision provider.
func (v VisionConfig) APIKey() string {
	switch v.Provider {
	case "openai":
		return ResolveEnvVars(v.OpenAIKey)
	case "gemini":
		return ResolveEnvVars(v.GeminiKey)
	}
	return ""
}
