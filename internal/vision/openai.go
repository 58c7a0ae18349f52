package vision

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = "gpt-4o"
)

// OpenAIConfig holds configuration for the OpenAI vision provider.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	MaxRetries int
	BaseURL    string // Optional (tests)
}

// OpenAIProvider implements Provider using the official OpenAI SDK.
type OpenAIProvider struct {
	model      string
	maxTokens  int
	timeout    time.Duration
	maxRetries int
	client     openai.Client
}

// NewOpenAIProvider creates a new OpenAI vision provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		client:     openai.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string { return OpenAIName }

// Analyze sends a vision (or text-only) chat completion request.
func (p *OpenAIProvider) Analyze(ctx context.Context, req *Request) (string, error) {
	var message openai.ChatCompletionMessageParamUnion
	if len(req.Image) > 0 {
		message = openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(req.Prompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: dataURL(req.MIMEType, req.Image),
			}),
		})
	} else {
		message = openai.UserMessage(req.Prompt)
	}

	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(p.model),
		Messages:  []openai.ChatCompletionMessageParamUnion{message},
		MaxTokens: openai.Int(int64(p.maxTokens)),
	}

	var content string
	err := retry.Do(
		func() error {
			callCtx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()

			resp, err := p.client.Chat.Completions.New(callCtx, params)
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
				return ErrEmptyResponse
			}
			content = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(p.maxRetries)),
		retry.Delay(2*time.Second),
	)
	if err != nil {
		return "", err
	}
	return content, nil
}
