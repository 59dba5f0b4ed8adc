package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockInvoker implements Invoker for testing. It replays scripted results
// per role and records every call. Exported for use by tests in other
// packages.
type MockInvoker struct {
	mu sync.Mutex

	// results are consumed in order per role; when a role's script is
	// exhausted the default result applies.
	results map[string][]MockResult

	// DefaultOutput is returned when no scripted result remains.
	DefaultOutput string

	calls []MockCall
}

// MockResult is one scripted invocation outcome.
type MockResult struct {
	Output string
	Err    error
	// Block, when non-nil, is closed by the test to release the call;
	// used to simulate slow model inference.
	Block chan struct{}
}

// MockCall records one Invoke call.
type MockCall struct {
	Role   string
	Prompt string
}

// NewMockInvoker creates a MockInvoker with a generic default output.
func NewMockInvoker() *MockInvoker {
	return &MockInvoker{
		results:       make(map[string][]MockResult),
		DefaultOutput: "generated text",
	}
}

// Script appends scripted results for a role.
func (m *MockInvoker) Script(role string, results ...MockResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[role] = append(m.results[role], results...)
}

// Calls returns a copy of all recorded calls.
func (m *MockInvoker) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Invoke calls made for a role;
// role "" counts all calls.
func (m *MockInvoker) CallCount(role string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if role == "" {
		return len(m.calls)
	}
	n := 0
	for _, c := range m.calls {
		if c.Role == role {
			n++
		}
	}
	return n
}

// Invoke records the call and returns the next scripted result.
func (m *MockInvoker) Invoke(ctx context.Context, role string, prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Role: role, Prompt: prompt})
	var r MockResult
	scripted := false
	if queue := m.results[role]; len(queue) > 0 {
		r = queue[0]
		m.results[role] = queue[1:]
		scripted = true
	}
	def := m.DefaultOutput
	m.mu.Unlock()

	if !scripted {
		return def, nil
	}
	if r.Block != nil {
		select {
		case <-r.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if r.Err != nil {
		return "", r.Err
	}
	return r.Output, nil
}

var _ Invoker = (*MockInvoker)(nil)
var _ Invoker = (*Client)(nil)

// ErrScripted builds a transient error for test scripts.
func ErrScripted(msg string) error {
	return NewTransientError(fmt.Errorf("%s", msg))
}
