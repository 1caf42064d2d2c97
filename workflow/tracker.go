package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/id"
)

// Tracker owns the lifecycle of run records: creation, ordered log
// appends, and the single terminal status transition. It is a thin layer
// over the store; the store serializes conflicting writes to one record.
type Tracker struct {
	store Store
}

// NewTracker creates a run tracker backed by the given store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Create persists a new run for the given workflow in running state with
// an empty log, and returns it. The run ID derives from the workflow ID
// plus the creation timestamp; two runs started within the same nanosecond
// collide, which the store reports as conduct.ErrRunAlreadyExists — a
// documented precision limit the caller handles by starting again.
func (t *Tracker) Create(ctx context.Context, workflowID id.WorkflowID) (*Run, error) {
	now := time.Now().UTC()
	run := &Run{
		Entity:     conduct.NewEntity(),
		ID:         id.NewRunID(workflowID, now),
		WorkflowID: workflowID,
		State:      RunStateRunning,
		StartedAt:  now,
	}

	if err := t.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run for workflow %s: %w", workflowID, err)
	}
	return run, nil
}

// Append adds one immutable log entry to the run. Safe to call from the
// run's execution goroutine while the run is in progress.
func (t *Tracker) Append(ctx context.Context, runID id.RunID, msg string, level LogLevel) error {
	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   msg,
	}
	if err := t.store.AppendRunLog(ctx, runID, entry); err != nil {
		return fmt.Errorf("append log to run %s: %w", runID, err)
	}
	return nil
}

// Finish sets the run's terminal state and finish timestamp. Calling it
// twice on the same run is a caller bug; the store's last-write semantics
// keep the record consistent either way.
func (t *Tracker) Finish(ctx context.Context, runID id.RunID, state RunState) error {
	if !state.Terminal() {
		return fmt.Errorf("finish run %s with state %q: %w", runID, state, conduct.ErrInvalidState)
	}
	if err := t.store.SetRunState(ctx, runID, state, time.Now().UTC()); err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}
