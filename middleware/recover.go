package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors and logged with a stack trace,
// so a panicking capability fails its run instead of crashing the
// process.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, step Step, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("capability panicked",
					slog.String("capability", step.Capability),
					slog.String("run_id", step.RunID),
					slog.Int("node", step.Index),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in capability %s: %v", step.Capability, r)
			}
		}()
		return next(ctx)
	}
}
