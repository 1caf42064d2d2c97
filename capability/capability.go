package capability

import "context"

// Result is the open-ended record a capability returns on success.
type Result map[string]any

// Capability is a pluggable action handler invoked by workflow nodes.
// Execute receives the node's action verb and its remaining rendered
// fields, and returns a result record or an error.
type Capability interface {
	Execute(ctx context.Context, action string, fields map[string]string) (Result, error)
}

// Factory creates a fresh capability instance. The engine calls it at most
// once per run per capability name; the instance is owned by that run.
type Factory func() Capability

// Func adapts a plain function to the Capability interface, for
// capabilities that carry no state between steps.
type Func func(ctx context.Context, action string, fields map[string]string) (Result, error)

// Execute implements Capability.
func (f Func) Execute(ctx context.Context, action string, fields map[string]string) (Result, error) {
	return f(ctx, action, fields)
}

// Info describes one registered capability for listing.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
