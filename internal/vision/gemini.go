package vision

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	genai "google.golang.org/genai"
)

const (
	GeminiName         = "gemini"
	geminiDefaultModel = "gemini-2.0-flash"
)

// GeminiConfig holds configuration for the Gemini vision provider.
type GeminiConfig struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// GeminiProvider implements Provider using the Google GenAI SDK.
type GeminiProvider struct {
	model      string
	timeout    time.Duration
	maxRetries int
	client     *genai.Client
}

// NewGeminiProvider creates a new Gemini vision provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing Gemini API key")
	}
	if cfg.Model == "" {
		cfg.Model = geminiDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, err
	}
	return &GeminiProvider{
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		client:     client,
	}, nil
}

// Name returns the provider identifier.
func (p *GeminiProvider) Name() string { return GeminiName }

// Analyze sends a multimodal (or text-only) generation request.
func (p *GeminiProvider) Analyze(ctx context.Context, req *Request) (string, error) {
	parts := []*genai.Part{{Text: req.Prompt}}
	if len(req.Image) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: req.MIMEType, Data: req.Image},
		})
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	var text string
	err := retry.Do(
		func() error {
			callCtx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()

			res, err := p.client.Models.GenerateContent(callCtx, p.model, contents, nil)
			if err != nil {
				return err
			}
			text = res.Text()
			if text == "" {
				return ErrEmptyResponse
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(p.maxRetries)),
		retry.Delay(2*time.Second),
	)
	if err != nil {
		return "", err
	}
	return text, nil
}
