package llm

import (
	"context"
	"sync"
)

// MockCompleter is a test double. Responses are consumed in order; when they
// run out the last one repeats.
type MockCompleter struct {
	mu        sync.Mutex
	Responses []string
	Err       error

	Calls []MockCall
}

type MockCall struct {
	Cred   Credential
	System string
	User   string
}

func NewMockCompleter(responses ...string) *MockCompleter {
	return &MockCompleter{Responses: responses}
}

func (m *MockCompleter) Complete(ctx context.Context, cred Credential, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Cred: cred, System: system, User: user})

	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}

	resp := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return resp, nil
}

func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
