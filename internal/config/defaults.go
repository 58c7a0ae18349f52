package config

import "time"

// DefaultConfig returns the configuration used when no config file overrides
// a value.
func DefaultConfig() *Config {
	return &Config{
		Vision: VisionConfig{
			Provider:    "gemini",
			OpenAIModel: "gpt-4o",
			GeminiModel: "gemini-2.0-flash",
			OpenAIKey:   "${OPENAI_API_KEY}",
			GeminiKey:   "${GEMINI_API_KEY}",
			MaxTokens:   4000,
			Timeout:     120 * time.Second,
			MaxRetries:  3,
		},
		Detector: DetectorConfig{
			Endpoint:            "http://localhost:8093/infer",
			InputSize:           640,
			ConfidenceThreshold: 0.2,
			Timeout:             30 * time.Second,
			MaxRetries:          3,
		},
		Splitter: SplitterConfig{
			PDFDPI:            200,
			ConversionTimeout: 120 * time.Second,
			MaxImageDimension: 1024,
		},
		Pipeline: PipelineConfig{
			MaxConcurrentPages: 4,
		},
		Storage: StorageConfig{
			ImagesPrefix:      "intermediate-images",
			RawTextPrefix:     "intermediate-raw-text",
			CroppedPrefix:     "cropped-images",
			PageResultsPrefix: "intermediate-page-results",
			FinalOutputPrefix: "final-outputs",
		},
	}
}
