package imageedit

import (
	"context"
)

// MockGenerator is a mock implementation of Generator.
type MockGenerator struct {
	EditFunc   func(ctx context.Context, image InputImage, instruction string, config *EditConfig) (*Response, error)
	ModelsFunc func() []ModelInfo
	CloseFunc  func() error
}

func (m *MockGenerator) Edit(ctx context.Context, image InputImage, instruction string, config *EditConfig) (*Response, error) {
	if m.EditFunc != nil {
		return m.EditFunc(ctx, image, instruction, config)
	}
	return &Response{}, nil
}

func (m *MockGenerator) Models() []ModelInfo {
	if m.ModelsFunc != nil {
		return m.ModelsFunc()
	}
	return []ModelInfo{testModel()}
}

func (m *MockGenerator) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockEditRequester is a mock implementation of EditRequester.
type MockEditRequester struct {
	RequestEditFunc func(ctx context.Context, payload, mimeType, prompt string) (string, error)
}

func (m *MockEditRequester) RequestEdit(ctx context.Context, payload, mimeType, prompt string) (string, error) {
	if m.RequestEditFunc != nil {
		return m.RequestEditFunc(ctx, payload, mimeType, prompt)
	}
	return "", nil
}

func testModel() ModelInfo {
	return ModelInfo{
		Name:         "test-model",
		Provider:     "test-provider",
		APIModelName: "test-model-api",
	}
}

// imageResponse returns a response whose first candidate carries parts.
func imageResponse(parts ...Part) *Response {
	return &Response{Candidates: []Candidate{{Parts: parts}}}
}
