package testutil

import (
	"context"

	"estuda/internal/llm"
)

// FakeLLM is an llm.Client returning canned responses. Responses are
// consumed in order; the last one repeats once the list runs out. A
// non-nil Err is returned instead, after recording the request.
type FakeLLM struct {
	Responses []string
	Err       error
	Requests  []llm.GenerateRequest
}

var _ llm.Client = (*FakeLLM)(nil)

func (f *FakeLLM) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return nil, f.Err
	}

	idx := len(f.Requests) - 1
	if idx >= len(f.Responses) {
		idx = len(f.Responses) - 1
	}
	if idx < 0 {
		return &llm.GenerateResponse{Text: "", Model: "fake"}, nil
	}
	return &llm.GenerateResponse{Text: f.Responses[idx], Model: "fake"}, nil
}
