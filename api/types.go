package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/workflow"
)

// maxPageSize caps list responses so a single request cannot drain the store.
const maxPageSize = 100

// SaveWorkflowRequest is the body of POST /v1/workflows.
type SaveWorkflowRequest struct {
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name"`
	Nodes []workflow.Node `json:"nodes"`
}

// SaveWorkflowResponse carries the ID assigned to a saved workflow.
type SaveWorkflowResponse struct {
	ID string `json:"id"`
}

// DeleteWorkflowResponse reports whether a delete removed anything.
type DeleteWorkflowResponse struct {
	Deleted bool `json:"deleted"`
}

// CapabilityInfo describes one registered capability.
type CapabilityInfo struct {
	Description string `json:"description"`
}

// ListCapabilitiesResponse maps capability names to their descriptions.
type ListCapabilitiesResponse map[string]CapabilityInfo

// StartRunRequest is the body of POST /v1/workflows/:workflowId/run.
type StartRunRequest struct {
	Params map[string]string `json:"params,omitempty"`
}

// StartRunResponse carries the ID of a started run.
type StartRunResponse struct {
	RunID string `json:"run_id"`
}

// ListRunsRequest holds the query parameters of GET /v1/runs.
type ListRunsRequest struct {
	Limit      int    `query:"limit" json:"limit,omitempty"`
	Offset     int    `query:"offset" json:"offset,omitempty"`
	State      string `query:"state" json:"state,omitempty"`
	WorkflowID string `query:"workflow_id" json:"workflow_id,omitempty"`
}

// ScheduleRequest is the body of POST /v1/workflows/:workflowId/schedule.
type ScheduleRequest struct {
	Cron string `json:"cron"`
}

// defaultLimit clamps a requested page size into (0, maxPageSize].
func defaultLimit(limit int) int {
	if limit <= 0 || limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// mapStoreError translates store and validation sentinels into HTTP errors.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, conduct.ErrWorkflowNotFound),
		errors.Is(err, conduct.ErrRunNotFound),
		errors.Is(err, conduct.ErrScheduleNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, conduct.ErrInvalidCronExpression):
		return forge.BadRequest(err.Error())
	default:
		return err
	}
}
