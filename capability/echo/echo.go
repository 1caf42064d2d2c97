// Package echo provides a capability that records its input and always
// succeeds. It is useful for wiring tests and for dry-running workflows
// before pointing them at real capabilities.
package echo

import (
	"context"
	"sync"

	"github.com/xraph/conduct/capability"
)

// Call records one Execute invocation.
type Call struct {
	Action string
	Fields map[string]string
}

// Echo records every call it receives. One instance is created per run,
// so recorded calls are scoped to a single execution.
type Echo struct {
	mu    sync.Mutex
	calls []Call
}

// New creates an Echo capability instance.
func New() *Echo { return &Echo{} }

// Factory is a capability.Factory for Echo.
func Factory() capability.Capability { return New() }

// Execute records the call and returns the rendered fields back as the
// result record.
func (e *Echo) Execute(_ context.Context, action string, fields map[string]string) (capability.Result, error) {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}

	e.mu.Lock()
	e.calls = append(e.calls, Call{Action: action, Fields: cp})
	e.mu.Unlock()

	res := capability.Result{"ok": true, "action": action}
	for k, v := range cp {
		res[k] = v
	}
	return res, nil
}

// Calls returns a copy of all recorded calls in invocation order.
func (e *Echo) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Call, len(e.calls))
	copy(out, e.calls)
	return out
}
