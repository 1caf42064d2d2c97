// Package memory provides a fully in-memory store backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/cron"
	"github.com/xraph/conduct/id"
	"github.com/xraph/conduct/workflow"
)

// Ensure Store implements store.Store at compile time.
// We can't import store here (import cycle), so we verify each subsystem.
var (
	_ workflow.Store = (*Store)(nil)
	_ cron.Store     = (*Store)(nil)
)

// Store is a fully in-memory implementation of store.Store.
// Safe for concurrent access. Intended for unit testing and development.
type Store struct {
	mu sync.RWMutex

	workflows map[string]*workflow.Workflow
	runs      map[string]*workflow.Run
	schedules map[string]*cron.Schedule
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		workflows: make(map[string]*workflow.Workflow),
		runs:      make(map[string]*workflow.Run),
		schedules: make(map[string]*cron.Schedule),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Workflow Store
// ──────────────────────────────────────────────────

// UpsertWorkflow creates or replaces a workflow by ID.
func (m *Store) UpsertWorkflow(_ context.Context, wf *workflow.Workflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := copyWorkflow(wf)
	cp.UpdatedAt = time.Now().UTC()
	m.workflows[wf.ID.String()] = cp
	return nil
}

// GetWorkflow retrieves a workflow by ID.
func (m *Store) GetWorkflow(_ context.Context, workflowID id.WorkflowID) (*workflow.Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wf, ok := m.workflows[workflowID.String()]
	if !ok {
		return nil, conduct.ErrWorkflowNotFound
	}
	return copyWorkflow(wf), nil
}

// ListWorkflows returns summaries of all workflows, ordered by creation time.
func (m *Store) ListWorkflows(_ context.Context) ([]workflow.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]workflow.Summary, 0, len(m.workflows))
	for _, wf := range m.workflows {
		result = append(result, wf.Summary())
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})
	return result, nil
}

// DeleteWorkflow removes a workflow by ID. Missing IDs are ignored.
func (m *Store) DeleteWorkflow(_ context.Context, workflowID id.WorkflowID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.workflows, workflowID.String())
	return nil
}

// CreateRun persists a new run record.
func (m *Store) CreateRun(_ context.Context, run *workflow.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := run.ID.String()
	if _, exists := m.runs[key]; exists {
		return conduct.ErrRunAlreadyExists
	}
	m.runs[key] = copyRun(run)
	return nil
}

// GetRun retrieves a run by ID, including its log.
func (m *Store) GetRun(_ context.Context, runID id.RunID) (*workflow.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[runID.String()]
	if !ok {
		return nil, conduct.ErrRunNotFound
	}
	return copyRun(run), nil
}

// ListRuns returns runs matching the given options, ordered by start
// time ascending.
func (m *Store) ListRuns(_ context.Context, opts workflow.ListRunOpts) ([]*workflow.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*workflow.Run, 0, len(m.runs))
	for _, run := range m.runs {
		if opts.State != "" && run.State != opts.State {
			continue
		}
		if !opts.WorkflowID.IsNil() && run.WorkflowID.String() != opts.WorkflowID.String() {
			continue
		}
		result = append(result, copyRun(run))
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].StartedAt.Before(result[k].StartedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// AppendRunLog appends one log entry to a run.
func (m *Store) AppendRunLog(_ context.Context, runID id.RunID, entry workflow.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID.String()]
	if !ok {
		return conduct.ErrRunNotFound
	}
	run.Logs = append(run.Logs, entry)
	run.UpdatedAt = time.Now().UTC()
	return nil
}

// SetRunState sets the run's state and finish timestamp.
func (m *Store) SetRunState(_ context.Context, runID id.RunID, state workflow.RunState, finishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID.String()]
	if !ok {
		return conduct.ErrRunNotFound
	}
	run.State = state
	f := finishedAt
	run.FinishedAt = &f
	run.UpdatedAt = time.Now().UTC()
	return nil
}

// ──────────────────────────────────────────────────
// Cron Store
// ──────────────────────────────────────────────────

// SaveSchedule persists a new schedule.
func (m *Store) SaveSchedule(_ context.Context, sched *cron.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.schedules[sched.ID.String()] = copySchedule(sched)
	return nil
}

// GetSchedule retrieves a schedule by ID.
func (m *Store) GetSchedule(_ context.Context, scheduleID id.ScheduleID) (*cron.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sched, ok := m.schedules[scheduleID.String()]
	if !ok {
		return nil, conduct.ErrScheduleNotFound
	}
	return copySchedule(sched), nil
}

// ListSchedules returns all schedules, ordered by creation time.
func (m *Store) ListSchedules(_ context.Context) ([]*cron.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*cron.Schedule, 0, len(m.schedules))
	for _, sched := range m.schedules {
		result = append(result, copySchedule(sched))
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})
	return result, nil
}

// UpdateSchedule replaces a stored schedule.
func (m *Store) UpdateSchedule(_ context.Context, sched *cron.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sched.ID.String()
	if _, ok := m.schedules[key]; !ok {
		return conduct.ErrScheduleNotFound
	}
	m.schedules[key] = copySchedule(sched)
	return nil
}

// DeleteSchedule removes a schedule by ID. Missing IDs are ignored.
func (m *Store) DeleteSchedule(_ context.Context, scheduleID id.ScheduleID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.schedules, scheduleID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Deep copies — callers must never share slices or maps
// with stored records.
// ──────────────────────────────────────────────────

func copyWorkflow(wf *workflow.Workflow) *workflow.Workflow {
	cp := *wf
	cp.Nodes = make([]workflow.Node, len(wf.Nodes))
	for i, n := range wf.Nodes {
		nc := n
		nc.Fields = make(map[string]string, len(n.Fields))
		for k, v := range n.Fields {
			nc.Fields[k] = v
		}
		cp.Nodes[i] = nc
	}
	return &cp
}

func copyRun(run *workflow.Run) *workflow.Run {
	cp := *run
	if run.FinishedAt != nil {
		f := *run.FinishedAt
		cp.FinishedAt = &f
	}
	cp.Logs = make([]workflow.LogEntry, len(run.Logs))
	copy(cp.Logs, run.Logs)
	return &cp
}

func copySchedule(sched *cron.Schedule) *cron.Schedule {
	cp := *sched
	if sched.LastRunAt != nil {
		t := *sched.LastRunAt
		cp.LastRunAt = &t
	}
	if sched.NextRunAt != nil {
		t := *sched.NextRunAt
		cp.NextRunAt = &t
	}
	return &cp
}
