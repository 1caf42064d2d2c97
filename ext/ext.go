// Package ext defines the extension system for Conduct.
// Extensions are notified of lifecycle events (run started, node
// completed, schedule fired, etc.) and can react to them — logging,
// live streaming, auditing.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/conduct/cron"
	"github.com/xraph/conduct/id"
	"github.com/xraph/conduct/workflow"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Run lifecycle hooks
// ──────────────────────────────────────────────────

// RunStarted is called when a workflow run begins.
type RunStarted interface {
	OnRunStarted(ctx context.Context, r *workflow.Run) error
}

// NodeCompleted is called after a node completes successfully.
type NodeCompleted interface {
	OnNodeCompleted(ctx context.Context, r *workflow.Run, index int, node workflow.Node) error
}

// NodeFailed is called when a node fails. The run stops after this.
type NodeFailed interface {
	OnNodeFailed(ctx context.Context, r *workflow.Run, index int, node workflow.Node, err error) error
}

// RunCompleted is called after every node of a run succeeds.
type RunCompleted interface {
	OnRunCompleted(ctx context.Context, r *workflow.Run, elapsed time.Duration) error
}

// RunFailed is called when a run fails.
type RunFailed interface {
	OnRunFailed(ctx context.Context, r *workflow.Run, err error) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// ScheduleFired is called when a schedule fires and starts a run.
type ScheduleFired interface {
	OnScheduleFired(ctx context.Context, sched *cron.Schedule, runID id.RunID) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
