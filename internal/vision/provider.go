// Package vision wraps the vision-language extraction capability behind a
// provider interface. Providers are interchangeable; the pipeline treats any
// call failure as "no content" for that call.
package vision

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/Shivank1006/doc-data/internal/config"
)

// Request is one content-extraction call. Image is optional: grounding
// calls are text-only.
type Request struct {
	Prompt   string
	Image    []byte
	MIMEType string
}

// Provider analyzes a page image (or plain prompt) and returns free text.
// The text may itself be JSON, Markdown, HTML or plain text depending on
// the prompt.
type Provider interface {
	// Analyze sends the request and returns the model's text response.
	Analyze(ctx context.Context, req *Request) (string, error)

	// Name returns the provider identifier (e.g. "openai", "gemini").
	Name() string
}

// ErrEmptyResponse is returned when the provider responds without content.
var ErrEmptyResponse = errors.New("provider returned empty response")

// NewProvider builds the configured provider from a VisionConfig.
func NewProvider(ctx context.Context, cfg config.VisionConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.APIKey(),
			Model:      cfg.OpenAIModel,
			MaxTokens:  cfg.MaxTokens,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		}), nil
	case "gemini":
		return NewGeminiProvider(ctx, GeminiConfig{
			APIKey:     cfg.APIKey(),
			Model:      cfg.GeminiModel,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
	default:
		return nil, errors.New("unknown vision provider: " + cfg.Provider)
	}
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
