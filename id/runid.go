package id

import (
	"fmt"
	"strings"
	"time"
)

// runIDTimeLayout is the timestamp format embedded in run IDs.
// Nanosecond precision keeps the collision window as small as the clock
// allows; two runs of one workflow starting within the same nanosecond
// still collide. That is a documented precision limit — the store rejects
// the duplicate and the caller starts the run again.
const runIDTimeLayout = "20060102T150405.000000000Z"

// RunID identifies a single execution of a workflow. It is derived, not
// generated: the parent workflow ID joined with the run's start timestamp,
// e.g. "wf_01h2xcejqt-20240301T120000.000000000Z". Deriving the ID keeps
// runs trivially groupable by workflow and sortable by start time.
type RunID string

// NilRunID is the zero-value RunID.
const NilRunID RunID = ""

// NewRunID derives a run ID from the parent workflow ID and start time.
func NewRunID(workflowID WorkflowID, startedAt time.Time) RunID {
	return RunID(workflowID.String() + "-" + startedAt.UTC().Format(runIDTimeLayout))
}

// ParseRunID validates that s has the derived run ID shape and returns it.
func ParseRunID(s string) (RunID, error) {
	r := RunID(s)
	if _, err := r.WorkflowID(); err != nil {
		return NilRunID, err
	}
	return r, nil
}

// String returns the run ID as a string.
func (r RunID) String() string { return string(r) }

// IsNil reports whether this RunID is the zero value.
func (r RunID) IsNil() bool { return r == NilRunID }

// WorkflowID extracts the parent workflow ID from the run ID.
func (r RunID) WorkflowID() (WorkflowID, error) {
	idx := strings.IndexByte(string(r), '-')
	if idx < 0 {
		return Nil, fmt.Errorf("id: run id %q: missing timestamp separator", r)
	}
	return ParseWorkflowID(string(r)[:idx])
}

// StartedAt extracts the start timestamp from the run ID.
func (r RunID) StartedAt() (time.Time, error) {
	idx := strings.IndexByte(string(r), '-')
	if idx < 0 {
		return time.Time{}, fmt.Errorf("id: run id %q: missing timestamp separator", r)
	}
	t, err := time.Parse(runIDTimeLayout, string(r)[idx+1:])
	if err != nil {
		return time.Time{}, fmt.Errorf("id: run id %q: %w", r, err)
	}
	return t, nil
}
