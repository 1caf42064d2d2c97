package workflow

import (
	"time"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/id"
)

// RunState represents the lifecycle state of a run.
// Transitions are monotonic and one-directional:
// running → completed, or running → failed. A run never re-enters
// running after reaching a terminal state.
type RunState string

const (
	// RunStateRunning means the node loop is (or is about to start)
	// iterating. A freshly created run is persisted in this state.
	RunStateRunning RunState = "running"
	// RunStateCompleted means every node succeeded.
	RunStateCompleted RunState = "completed"
	// RunStateFailed means a node failed and the loop stopped.
	RunStateFailed RunState = "failed"
)

// Terminal reports whether s is a terminal run state.
func (s RunState) Terminal() bool {
	return s == RunStateCompleted || s == RunStateFailed
}

// LogLevel is the severity of a run log entry.
type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelError LogLevel = "error"
)

// LogEntry is one immutable, append-only entry of a run's log.
type LogEntry struct {
	Timestamp time.Time `json:"ts"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"msg"`
}

// Run represents a single execution of a workflow.
type Run struct {
	conduct.Entity

	ID         id.RunID      `json:"id"`
	WorkflowID id.WorkflowID `json:"workflow_id"`
	State      RunState      `json:"state"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Logs       []LogEntry    `json:"logs"`
}
