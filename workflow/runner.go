package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/conduct/capability"
	"github.com/xraph/conduct/id"
	"github.com/xraph/conduct/middleware"
)

// RunEmitter emits run-level lifecycle events.
// This interface is satisfied by ext.Registry (via an adapter in the
// engine package) to break the import cycle between workflow and ext.
type RunEmitter interface {
	EmitRunStarted(ctx context.Context, run *Run)
	EmitNodeCompleted(ctx context.Context, run *Run, index int, node Node)
	EmitNodeFailed(ctx context.Context, run *Run, index int, node Node, err error)
	EmitRunCompleted(ctx context.Context, run *Run, elapsed time.Duration)
	EmitRunFailed(ctx context.Context, run *Run, err error)
}

// nopEmitter is used when no emitter is configured.
type nopEmitter struct{}

func (nopEmitter) EmitRunStarted(context.Context, *Run)                   {}
func (nopEmitter) EmitNodeCompleted(context.Context, *Run, int, Node)     {}
func (nopEmitter) EmitNodeFailed(context.Context, *Run, int, Node, error) {}
func (nopEmitter) EmitRunCompleted(context.Context, *Run, time.Duration)  {}
func (nopEmitter) EmitRunFailed(context.Context, *Run, error)             {}

// Runner orchestrates workflow execution: creating runs, rendering
// node parameters, invoking capabilities, and recording run state.
type Runner struct {
	registry *capability.Registry
	store    Store
	tracker  *Tracker
	emitter  RunEmitter
	mw       middleware.Middleware
	logger   *slog.Logger
}

// NewRunner creates a workflow runner. A nil emitter is replaced with
// a no-op, a nil middleware runs nodes bare, and a nil logger falls back
// to slog.Default.
func NewRunner(
	registry *capability.Registry,
	store Store,
	tracker *Tracker,
	emitter RunEmitter,
	mw middleware.Middleware,
	logger *slog.Logger,
) *Runner {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	if mw == nil {
		mw = middleware.Chain()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry: registry,
		store:    store,
		tracker:  tracker,
		emitter:  emitter,
		mw:       mw,
		logger:   logger,
	}
}

// Registry returns the capability registry.
func (r *Runner) Registry() *capability.Registry { return r.registry }

// Start begins a new run of the workflow. The run is created in the
// running state and its ID returned immediately; node execution
// proceeds on a detached goroutine that outlives ctx cancellation.
func (r *Runner) Start(ctx context.Context, workflowID id.WorkflowID, params map[string]string) (id.RunID, error) {
	wf, err := r.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return id.NilRunID, fmt.Errorf("start workflow %s: %w", workflowID, err)
	}

	run, err := r.tracker.Create(ctx, workflowID)
	if err != nil {
		return id.NilRunID, fmt.Errorf("start workflow %s: %w", workflowID, err)
	}

	r.emitter.EmitRunStarted(ctx, run)

	go r.executeRun(context.WithoutCancel(ctx), wf, run, params)

	return run.ID, nil
}

// executeRun walks the workflow nodes in order, stopping at the first
// failure. Log appends are best-effort: a failed append is logged and
// execution continues.
func (r *Runner) executeRun(ctx context.Context, wf *Workflow, run *Run, params map[string]string) {
	start := time.Now()
	ec := NewExecContext(r.registry)

	for i, node := range wf.Nodes {
		rendered := RenderNode(node, params)

		step := middleware.Step{
			RunID:      run.ID.String(),
			Index:      i,
			Capability: rendered.Capability,
		}
		err := r.mw(ctx, step, func(ctx context.Context) error {
			_, execErr := ExecuteNode(ctx, rendered, ec)
			return execErr
		})
		if err != nil {
			r.appendLog(ctx, run.ID, err.Error(), LevelError)
			if ferr := r.tracker.Finish(ctx, run.ID, RunStateFailed); ferr != nil {
				r.logger.Error("finish run failed",
					slog.String("run_id", run.ID.String()),
					slog.String("error", ferr.Error()))
			}
			r.emitter.EmitNodeFailed(ctx, run, i, rendered, err)
			r.emitter.EmitRunFailed(ctx, run, err)
			return
		}

		r.appendLog(ctx, run.ID, rendered.Capability+" ok", LevelInfo)
		r.emitter.EmitNodeCompleted(ctx, run, i, rendered)
	}

	elapsed := time.Since(start)

	if err := r.tracker.Finish(ctx, run.ID, RunStateCompleted); err != nil {
		r.logger.Error("finish run failed",
			slog.String("run_id", run.ID.String()),
			slog.String("error", err.Error()))
	}
	r.appendLog(ctx, run.ID, "completed", LevelInfo)
	r.emitter.EmitRunCompleted(ctx, run, elapsed)
}

func (r *Runner) appendLog(ctx context.Context, runID id.RunID, msg string, level LogLevel) {
	if err := r.tracker.Append(ctx, runID, msg, level); err != nil {
		r.logger.Error("append run log failed",
			slog.String("run_id", runID.String()),
			slog.String("error", err.Error()))
	}
}
