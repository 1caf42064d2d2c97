package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/conduct/cron"
	"github.com/xraph/conduct/id"
)

func (a *API) createSchedule(ctx forge.Context, req *ScheduleRequest) (*cron.Schedule, error) {
	wfID, err := id.ParseWorkflowID(ctx.Param("workflowId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid workflow ID: %v", err))
	}

	sched, err := a.eng.Schedule(ctx.Context(), wfID, req.Cron)
	if err != nil {
		return nil, mapStoreError(err)
	}

	return sched, ctx.JSON(http.StatusOK, sched)
}

func (a *API) listSchedules(ctx forge.Context) error {
	schedules, err := a.eng.Schedules(ctx.Context())
	if err != nil {
		return fmt.Errorf("list schedules: %w", err)
	}
	return ctx.JSON(http.StatusOK, schedules)
}

func (a *API) enableSchedule(ctx forge.Context) error {
	schedID, err := id.ParseScheduleID(ctx.Param("scheduleId"))
	if err != nil {
		return forge.BadRequest(fmt.Sprintf("invalid schedule ID: %v", err))
	}

	if enableErr := a.eng.EnableSchedule(ctx.Context(), schedID); enableErr != nil {
		return mapStoreError(enableErr)
	}

	sched, err := a.eng.GetSchedule(ctx.Context(), schedID)
	if err != nil {
		return mapStoreError(err)
	}

	return ctx.JSON(http.StatusOK, sched)
}

func (a *API) disableSchedule(ctx forge.Context) error {
	schedID, err := id.ParseScheduleID(ctx.Param("scheduleId"))
	if err != nil {
		return forge.BadRequest(fmt.Sprintf("invalid schedule ID: %v", err))
	}

	if disableErr := a.eng.DisableSchedule(ctx.Context(), schedID); disableErr != nil {
		return mapStoreError(disableErr)
	}

	sched, err := a.eng.GetSchedule(ctx.Context(), schedID)
	if err != nil {
		return mapStoreError(err)
	}

	return ctx.JSON(http.StatusOK, sched)
}

func (a *API) deleteSchedule(ctx forge.Context) error {
	schedID, err := id.ParseScheduleID(ctx.Param("scheduleId"))
	if err != nil {
		return forge.BadRequest(fmt.Sprintf("invalid schedule ID: %v", err))
	}

	if delErr := a.eng.DeleteSchedule(ctx.Context(), schedID); delErr != nil {
		return mapStoreError(delErr)
	}

	return ctx.NoContent(http.StatusNoContent)
}
