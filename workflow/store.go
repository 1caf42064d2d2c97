package workflow

import (
	"context"
	"time"

	"github.com/xraph/conduct/id"
)

// ListRunOpts controls pagination and filtering for run list queries.
type ListRunOpts struct {
	// Limit is the maximum number of runs to return. Zero means no limit.
	Limit int
	// Offset is the number of runs to skip.
	Offset int
	// State filters by run state. Empty means all states.
	State RunState
	// WorkflowID filters by parent workflow. Nil means all workflows.
	WorkflowID id.WorkflowID
}

// Store defines the persistence contract for workflows and runs.
// The backend must support concurrent appends and reads from multiple
// runs and the request path simultaneously; conflicting writes to a
// single record are serialized by the backend.
type Store interface {
	// UpsertWorkflow creates or replaces a workflow by ID.
	UpsertWorkflow(ctx context.Context, wf *Workflow) error

	// GetWorkflow retrieves a workflow by ID.
	// Returns conduct.ErrWorkflowNotFound if absent.
	GetWorkflow(ctx context.Context, workflowID id.WorkflowID) (*Workflow, error)

	// ListWorkflows returns summaries of all workflows (no node bodies).
	ListWorkflows(ctx context.Context) ([]Summary, error)

	// DeleteWorkflow removes a workflow by ID. Deleting a nonexistent
	// ID is not an error.
	DeleteWorkflow(ctx context.Context, workflowID id.WorkflowID) error

	// CreateRun persists a new run record.
	// Returns conduct.ErrRunAlreadyExists on a duplicate run ID.
	CreateRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run by ID, including its log.
	// Returns conduct.ErrRunNotFound if absent.
	GetRun(ctx context.Context, runID id.RunID) (*Run, error)

	// ListRuns returns runs matching the given options, ordered by
	// start time ascending.
	ListRuns(ctx context.Context, opts ListRunOpts) ([]*Run, error)

	// AppendRunLog appends one immutable log entry to a run.
	AppendRunLog(ctx context.Context, runID id.RunID, entry LogEntry) error

	// SetRunState sets the run's terminal state and finish timestamp.
	// A second call on the same run overwrites (last-write idempotent);
	// it must not corrupt the record.
	SetRunState(ctx context.Context, runID id.RunID, state RunState, finishedAt time.Time) error
}
