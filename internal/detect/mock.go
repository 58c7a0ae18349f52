package detect

import "context"

// MockInferencer returns canned detections for tests.
type MockInferencer struct {
	Result *InferenceResult
	Err    error

	// Calls counts Infer invocations.
	Calls int
}

// Infer returns the configured result or error.
func (m *MockInferencer) Infer(ctx context.Context, t *Tensor) (*InferenceResult, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result == nil {
		return &InferenceResult{InputSize: t.Size}, nil
	}
	return m.Result, nil
}
