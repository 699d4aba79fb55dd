package executor

import (
	"context"
	"sync"
)

// MockExecutor is a mock implementation of Executor for testing.
// Commands are keyed by their program name.
type MockExecutor struct {
	// Errors maps a program name to the error its invocation returns
	Errors map[string]error
	// Effects maps a program name to a side effect run before returning,
	// e.g. creating the files the real tool would have produced
	Effects map[string]func(Command) error

	mu    sync.Mutex
	calls []Command
}

func (m *MockExecutor) Run(ctx context.Context, cmd Command) error {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := m.Errors[cmd.Name]; ok && err != nil {
		return err
	}
	if effect, ok := m.Effects[cmd.Name]; ok {
		return effect(cmd)
	}
	return nil
}

// Calls returns the commands run so far, in order
func (m *MockExecutor) Calls() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Command, len(m.calls))
	copy(out, m.calls)
	return out
}
