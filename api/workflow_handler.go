package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/id"
	"github.com/xraph/conduct/workflow"
)

func (a *API) saveWorkflow(ctx forge.Context, req *SaveWorkflowRequest) (SaveWorkflowResponse, error) {
	if req.Name == "" {
		return SaveWorkflowResponse{}, forge.BadRequest("workflow name is required")
	}

	wf := &workflow.Workflow{
		Name:  req.Name,
		Nodes: req.Nodes,
	}
	if req.ID != "" {
		wfID, err := id.ParseWorkflowID(req.ID)
		if err != nil {
			return SaveWorkflowResponse{}, forge.BadRequest(fmt.Sprintf("invalid workflow ID: %v", err))
		}
		wf.ID = wfID
	}

	if err := a.eng.SaveWorkflow(ctx.Context(), wf); err != nil {
		return SaveWorkflowResponse{}, fmt.Errorf("save workflow: %w", err)
	}

	resp := SaveWorkflowResponse{ID: wf.ID.String()}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) listWorkflows(ctx forge.Context) error {
	summaries, err := a.eng.ListWorkflows(ctx.Context())
	if err != nil {
		return fmt.Errorf("list workflows: %w", err)
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (a *API) getWorkflow(ctx forge.Context) error {
	wfID, err := id.ParseWorkflowID(ctx.Param("workflowId"))
	if err != nil {
		return forge.BadRequest(fmt.Sprintf("invalid workflow ID: %v", err))
	}

	wf, err := a.eng.GetWorkflow(ctx.Context(), wfID)
	if err != nil {
		return mapStoreError(err)
	}

	return ctx.JSON(http.StatusOK, wf)
}

func (a *API) deleteWorkflow(ctx forge.Context) error {
	wfID, err := id.ParseWorkflowID(ctx.Param("workflowId"))
	if err != nil {
		return forge.BadRequest(fmt.Sprintf("invalid workflow ID: %v", err))
	}

	// Probe first so the response can report whether anything was removed;
	// the delete itself is idempotent.
	deleted := true
	if _, getErr := a.eng.GetWorkflow(ctx.Context(), wfID); getErr != nil {
		if !errors.Is(getErr, conduct.ErrWorkflowNotFound) {
			return mapStoreError(getErr)
		}
		deleted = false
	}

	if delErr := a.eng.DeleteWorkflow(ctx.Context(), wfID); delErr != nil {
		return mapStoreError(delErr)
	}

	return ctx.JSON(http.StatusOK, DeleteWorkflowResponse{Deleted: deleted})
}
