package datasetgen

import (
	"context"
	"fmt"
	"sync"
)

// MockImageGenerator is a mock implementation of ImageGenerator and VariationGenerator.
type MockImageGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string, config *GenerateConfig) (*GenerateResult, error)
	VaryFunc     func(ctx context.Context, image ImagePayload, prompt string, config *GenerateConfig) (*GenerateResult, error)
	ModelsFunc   func() []ModelInfo
	CloseFunc    func() error

	mu      sync.Mutex
	prompts []string
}

func (m *MockImageGenerator) Generate(ctx context.Context, prompt string, config *GenerateConfig) (*GenerateResult, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, config)
	}
	return fakeResult(prompt, config.NumberOfImages), nil
}

func (m *MockImageGenerator) Vary(ctx context.Context, image ImagePayload, prompt string, config *GenerateConfig) (*GenerateResult, error) {
	if m.VaryFunc != nil {
		return m.VaryFunc(ctx, image, prompt, config)
	}
	return fakeResult("variation of "+prompt, 1), nil
}

func (m *MockImageGenerator) Models() []ModelInfo {
	if m.ModelsFunc != nil {
		return m.ModelsFunc()
	}
	return []ModelInfo{}
}

func (m *MockImageGenerator) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Prompts returns the prompts Generate was called with, in order.
func (m *MockImageGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func fakeResult(prompt string, n int) *GenerateResult {
	result := &GenerateResult{}
	for i := 0; i < n; i++ {
		result.Images = append(result.Images,
			PayloadFromBytes([]byte(fmt.Sprintf("%s #%d", prompt, i)), "image/jpeg"))
	}
	return result
}

// sequentialIDs returns an id generator yielding prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
