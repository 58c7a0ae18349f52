package vision

import "context"

// MockProvider returns scripted responses for tests. Responses are consumed
// in order; when exhausted, the last one repeats.
type MockProvider struct {
	Responses []string
	Err       error

	// Requests records every request received, in order.
	Requests []*Request
}

// Analyze returns the next scripted response.
func (m *MockProvider) Analyze(ctx context.Context, req *Request) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", ErrEmptyResponse
	}
	i := len(m.Requests) - 1
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	return m.Responses[i], nil
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string { return "mock" }
