package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/capability"
	"github.com/xraph/conduct/cron"
	"github.com/xraph/conduct/ext"
	"github.com/xraph/conduct/id"
	mw "github.com/xraph/conduct/middleware"
	"github.com/xraph/conduct/stream"
	"github.com/xraph/conduct/workflow"
)

// extRunEmitter adapts *ext.Registry to satisfy workflow.RunEmitter.
// This breaks the import cycle: workflow defines the interface,
// ext.Registry provides the implementation, and the engine layer
// plugs them together.
type extRunEmitter struct {
	r *ext.Registry
}

func (a *extRunEmitter) EmitRunStarted(ctx context.Context, run *workflow.Run) {
	a.r.EmitRunStarted(ctx, run)
}

func (a *extRunEmitter) EmitNodeCompleted(ctx context.Context, run *workflow.Run, index int, node workflow.Node) {
	a.r.EmitNodeCompleted(ctx, run, index, node)
}

func (a *extRunEmitter) EmitNodeFailed(ctx context.Context, run *workflow.Run, index int, node workflow.Node, err error) {
	a.r.EmitNodeFailed(ctx, run, index, node, err)
}

func (a *extRunEmitter) EmitRunCompleted(ctx context.Context, run *workflow.Run, elapsed time.Duration) {
	a.r.EmitRunCompleted(ctx, run, elapsed)
}

func (a *extRunEmitter) EmitRunFailed(ctx context.Context, run *workflow.Run, err error) {
	a.r.EmitRunFailed(ctx, run, err)
}

// Engine wraps a Conductor with typed subsystem access.
// Use Build() to create one from a Conductor.
type Engine struct {
	c            *conduct.Conductor
	extensions   *ext.Registry
	capabilities *capability.Registry
	wfStore      workflow.Store
	cronStore    cron.Store
	tracker      *workflow.Tracker
	runner       *workflow.Runner
	scheduler    *cron.Scheduler
	broker       *stream.Broker
	mws          []mw.Middleware
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) {
		eng.extensions.Register(e)
	}
}

// WithMiddleware adds middleware to the engine's node execution chain.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithStreamBroker registers a stream broker as an extension and keeps
// a typed reference for the API's live-event endpoints.
func WithStreamBroker(b *stream.Broker) Option {
	return func(eng *Engine) {
		eng.broker = b
		eng.extensions.Register(b)
	}
}

// Build creates an Engine from an existing Conductor.
// The Conductor's store must implement workflow.Store and cron.Store.
func Build(c *conduct.Conductor, opts ...Option) (*Engine, error) {
	logger := c.Logger()
	store := c.Store()

	if store == nil {
		return nil, conduct.ErrNoStore
	}

	ws, ok := store.(workflow.Store)
	if !ok {
		return nil, fmt.Errorf("conduct: store does not implement workflow.Store")
	}
	cs, ok := store.(cron.Store)
	if !ok {
		return nil, fmt.Errorf("conduct: store does not implement cron.Store")
	}

	eng := &Engine{
		c:            c,
		extensions:   ext.NewRegistry(logger),
		capabilities: capability.NewRegistry(),
		wfStore:      ws,
		cronStore:    cs,
		logger:       logger,
	}

	for _, opt := range opts {
		opt(eng)
	}

	// Build middleware stack: recover → logging → user middleware.
	defaultMws := []mw.Middleware{
		mw.Recover(logger),
		mw.Logging(logger),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	// Create the run subsystem.
	emitter := &extRunEmitter{r: eng.extensions}
	eng.tracker = workflow.NewTracker(ws)
	eng.runner = workflow.NewRunner(eng.capabilities, ws, eng.tracker, emitter, mw.Chain(allMws...), logger)

	// Create the scheduler. Fired schedules start runs through the
	// runner with no parameters.
	startFunc := func(ctx context.Context, workflowID id.WorkflowID, params map[string]string) (id.RunID, error) {
		return eng.runner.Start(ctx, workflowID, params)
	}
	eng.scheduler = cron.NewScheduler(cs, startFunc, eng.extensions, logger,
		cron.WithTickInterval(c.Config().TickInterval))

	// Wire back into the Conductor.
	c.SetScheduler(eng.scheduler)
	c.SetExtensions(eng.extensions)

	return eng, nil
}

// Conductor returns the underlying Conductor.
func (eng *Engine) Conductor() *conduct.Conductor { return eng.c }

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Broker returns the stream broker, or nil if none was configured.
func (eng *Engine) Broker() *stream.Broker { return eng.broker }

// ── Capabilities ──────────────────────────────────

// RegisterCapability adds a capability under the given name.
// Registering the same name again overwrites the previous entry.
func (eng *Engine) RegisterCapability(name, description string, factory capability.Factory) {
	eng.capabilities.Register(name, description, factory)
}

// Capabilities returns name and description for all registered
// capabilities.
func (eng *Engine) Capabilities() []capability.Info {
	return eng.capabilities.List()
}

// ── Workflows ─────────────────────────────────────

// SaveWorkflow creates or replaces a workflow. A workflow with a nil ID
// is assigned a fresh one; an unstamped document gets its timestamps set
// regardless of how its ID was chosen.
func (eng *Engine) SaveWorkflow(ctx context.Context, wf *workflow.Workflow) error {
	if wf.ID.IsNil() {
		wf.ID = id.NewWorkflowID()
	}
	if wf.CreatedAt.IsZero() {
		wf.Entity = conduct.NewEntity()
	}
	return eng.wfStore.UpsertWorkflow(ctx, wf)
}

// GetWorkflow retrieves a workflow by ID.
func (eng *Engine) GetWorkflow(ctx context.Context, workflowID id.WorkflowID) (*workflow.Workflow, error) {
	return eng.wfStore.GetWorkflow(ctx, workflowID)
}

// ListWorkflows returns summaries of all workflows.
func (eng *Engine) ListWorkflows(ctx context.Context) ([]workflow.Summary, error) {
	return eng.wfStore.ListWorkflows(ctx)
}

// DeleteWorkflow removes a workflow. Runs and schedules referencing it
// are kept; scheduled fires for a deleted workflow fail and are logged.
func (eng *Engine) DeleteWorkflow(ctx context.Context, workflowID id.WorkflowID) error {
	return eng.wfStore.DeleteWorkflow(ctx, workflowID)
}

// ── Runs ──────────────────────────────────────────

// StartRun begins a new run of the workflow with the given parameters.
// The run ID is returned immediately; execution proceeds in the
// background.
func (eng *Engine) StartRun(ctx context.Context, workflowID id.WorkflowID, params map[string]string) (id.RunID, error) {
	return eng.runner.Start(ctx, workflowID, params)
}

// GetRun retrieves a run by ID, including its log.
func (eng *Engine) GetRun(ctx context.Context, runID id.RunID) (*workflow.Run, error) {
	return eng.wfStore.GetRun(ctx, runID)
}

// ListRuns returns runs matching the given options.
func (eng *Engine) ListRuns(ctx context.Context, opts workflow.ListRunOpts) ([]*workflow.Run, error) {
	return eng.wfStore.ListRuns(ctx, opts)
}

// ── Schedules ─────────────────────────────────────

// Schedule validates expr, binds it to the workflow, and persists the
// schedule enabled. The workflow ID is not checked for existence;
// a schedule pointing at a missing workflow surfaces as a logged failed
// attempt each time it fires.
func (eng *Engine) Schedule(ctx context.Context, workflowID id.WorkflowID, expr string) (*cron.Schedule, error) {
	return eng.scheduler.Register(ctx, workflowID, expr)
}

// Schedules returns all schedules.
func (eng *Engine) Schedules(ctx context.Context) ([]*cron.Schedule, error) {
	return eng.cronStore.ListSchedules(ctx)
}

// GetSchedule retrieves a schedule by ID.
func (eng *Engine) GetSchedule(ctx context.Context, scheduleID id.ScheduleID) (*cron.Schedule, error) {
	return eng.cronStore.GetSchedule(ctx, scheduleID)
}

// EnableSchedule re-enables a schedule. NextRunAt is recomputed from
// now so a long-disabled schedule does not fire immediately for missed
// slots.
func (eng *Engine) EnableSchedule(ctx context.Context, scheduleID id.ScheduleID) error {
	sched, err := eng.cronStore.GetSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	if sched.Enabled {
		return nil
	}

	parsed, err := cron.ParseExpr(sched.Expr)
	if err != nil {
		return err
	}
	next := parsed.Next(time.Now().UTC())
	sched.Enabled = true
	sched.NextRunAt = &next
	return eng.cronStore.UpdateSchedule(ctx, sched)
}

// DisableSchedule stops a schedule from firing without deleting it.
func (eng *Engine) DisableSchedule(ctx context.Context, scheduleID id.ScheduleID) error {
	sched, err := eng.cronStore.GetSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	if !sched.Enabled {
		return nil
	}
	sched.Enabled = false
	return eng.cronStore.UpdateSchedule(ctx, sched)
}

// DeleteSchedule removes a schedule.
func (eng *Engine) DeleteSchedule(ctx context.Context, scheduleID id.ScheduleID) error {
	return eng.cronStore.DeleteSchedule(ctx, scheduleID)
}
