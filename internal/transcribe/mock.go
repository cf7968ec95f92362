package transcribe

import (
	"context"
	"sync"
)

// MockTranscriber is a local fallback used when no transcriber command is
// configured. It returns scripted responses in order, repeating the last
// one, and records every call for assertions.
type MockTranscriber struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	served    int
	inputs    [][]byte
}

func NewMockTranscriber(responses ...string) *MockTranscriber {
	return &MockTranscriber{responses: responses}
}

// FailWith queues errors returned before the scripted responses kick in.
func (m *MockTranscriber) FailWith(errs ...error) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
	return m
}

func (m *MockTranscriber) Transcribe(_ context.Context, pcm []byte, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.inputs = append(m.inputs, append([]byte(nil), pcm...))

	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return "", err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	idx := m.served
	m.served++
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func (m *MockTranscriber) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockTranscriber) LastInput() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inputs) == 0 {
		return nil
	}
	return m.inputs[len(m.inputs)-1]
}
