package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/conduct/id"
	"github.com/xraph/conduct/workflow"
)

func (a *API) startRun(ctx forge.Context, req *StartRunRequest) (StartRunResponse, error) {
	wfID, err := id.ParseWorkflowID(ctx.Param("workflowId"))
	if err != nil {
		return StartRunResponse{}, forge.BadRequest(fmt.Sprintf("invalid workflow ID: %v", err))
	}

	runID, err := a.eng.StartRun(ctx.Context(), wfID, req.Params)
	if err != nil {
		return StartRunResponse{}, mapStoreError(err)
	}

	resp := StartRunResponse{RunID: runID.String()}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) listRuns(ctx forge.Context, req *ListRunsRequest) ([]*workflow.Run, error) {
	opts := workflow.ListRunOpts{
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
		State:  workflow.RunState(req.State),
	}
	if req.WorkflowID != "" {
		wfID, err := id.ParseWorkflowID(req.WorkflowID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid workflow ID: %v", err))
		}
		opts.WorkflowID = wfID
	}

	runs, err := a.eng.ListRuns(ctx.Context(), opts)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	return runs, ctx.JSON(http.StatusOK, runs)
}

func (a *API) getRun(ctx forge.Context) error {
	runID, err := id.ParseRunID(ctx.Param("runId"))
	if err != nil {
		return forge.BadRequest(fmt.Sprintf("invalid run ID: %v", err))
	}

	run, err := a.eng.GetRun(ctx.Context(), runID)
	if err != nil {
		return mapStoreError(err)
	}

	return ctx.JSON(http.StatusOK, run)
}
