package infer

import (
	"context"
	"sync"

	"github.com/mkrv/meowform/internal/taxonomy"
)

// MockInferencer returns a fixed tag set (or error) and records calls.
type MockInferencer struct {
	mu    sync.Mutex
	tags  taxonomy.TargetTagSet
	err   error
	calls int
	texts []string

	// Delay hook lets tests simulate slow inference.
	BeforeReturn func(ctx context.Context) error
}

func NewMockInferencer(tags taxonomy.TargetTagSet) *MockInferencer {
	return &MockInferencer{tags: tags}
}

func NewFailingInferencer(err error) *MockInferencer {
	return &MockInferencer{err: err}
}

func (m *MockInferencer) InferTags(ctx context.Context, text string) (taxonomy.TargetTagSet, error) {
	m.mu.Lock()
	m.calls++
	m.texts = append(m.texts, text)
	hook := m.BeforeReturn
	tags, err := m.tags, m.err
	m.mu.Unlock()

	if hook != nil {
		if hookErr := hook(ctx); hookErr != nil {
			return taxonomy.TargetTagSet{}, hookErr
		}
	}
	return tags, err
}

func (m *MockInferencer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockInferencer) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}
