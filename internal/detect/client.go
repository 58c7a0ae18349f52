package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// RawDetection is one model output row in model-input pixel space:
// (x1, y1, x2, y2, confidence, classID).
type RawDetection [6]float32

// InferenceResult is the raw model output plus the model's input geometry.
type InferenceResult struct {
	Detections []RawDetection
	InputSize  int
	ClassCount int
}

// Inferencer runs the detection model on a preprocessed tensor.
type Inferencer interface {
	Infer(ctx context.Context, t *Tensor) (*InferenceResult, error)
}

// HTTPInferencer calls a remote inference service that hosts the ONNX
// layout model.
type HTTPInferencer struct {
	endpoint   string
	maxRetries int
	client     *http.Client
}

// HTTPInferencerConfig holds configuration for the inference client.
type HTTPInferencerConfig struct {
	Endpoint   string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client // Optional (tests)
}

// NewHTTPInferencer creates a client for a remote inference endpoint.
func NewHTTPInferencer(cfg HTTPInferencerConfig) *HTTPInferencer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPInferencer{
		endpoint:   cfg.Endpoint,
		maxRetries: cfg.MaxRetries,
		client:     client,
	}
}

type inferRequest struct {
	Shape []int     `json:"shape"` // [1, 3, H, W]
	Data  []float32 `json:"data"`
}

type inferResponse struct {
	Detections []RawDetection `json:"detections"`
	InputSize  int            `json:"input_size"`
	ClassCount int            `json:"class_count"`
}

// Infer posts the tensor to the inference service and returns raw
// detections in model input space.
func (c *HTTPInferencer) Infer(ctx context.Context, t *Tensor) (*InferenceResult, error) {
	body, err := json.Marshal(inferRequest{
		Shape: []int{1, 3, t.Size, t.Size},
		Data:  t.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inference request: %w", err)
	}

	var parsed inferResponse
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("inference service returned %d: %s", resp.StatusCode, string(respBody))
			}
			return json.Unmarshal(respBody, &parsed)
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}

	if parsed.InputSize == 0 {
		parsed.InputSize = t.Size
	}
	return &InferenceResult{
		Detections: parsed.Detections,
		InputSize:  parsed.InputSize,
		ClassCount: parsed.ClassCount,
	}, nil
}
