// Package middleware provides composable middleware for node execution.
// Middleware wraps each node's capability call synchronously and can
// modify execution (recover from panics, log, etc.).
package middleware

import "context"

// Step describes the node execution being wrapped.
type Step struct {
	// RunID is the identifier of the run the node belongs to.
	RunID string
	// Index is the node's zero-based position in the workflow.
	Index int
	// Capability is the capability name the node resolves to.
	Capability string
}

// Handler is the terminal function that executes the node's capability.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the step being executed, and the
// next handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware func(ctx context.Context, step Step, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover) executes as:
//
//	logging → recover → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, step Step, next Handler) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, step, prev)
			}
		}
		return h(ctx)
	}
}
