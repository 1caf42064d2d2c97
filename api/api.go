// Package api provides HTTP handlers for the Conduct API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/conduct/cron"
	"github.com/xraph/conduct/engine"
	"github.com/xraph/conduct/workflow"
)

// API wires all Forge-style HTTP handlers together for the conduct system.
type API struct {
	eng    *engine.Engine
	router forge.Router
	logger *slog.Logger
}

// New creates an API from a conduct Engine.
func New(eng *engine.Engine, router forge.Router) *API {
	return &API{eng: eng, router: router, logger: eng.Conductor().Logger()}
}

// Handler returns the fully assembled http.Handler: the /v1 API, the
// inference proxy, and the static front-end when those are configured.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	a.RegisterRoutes(a.router)

	cfg := a.eng.Conductor().Config()

	mux := http.NewServeMux()
	mux.Handle("/v1/", a.router.Handler())
	if cfg.InferenceURL != "" {
		mux.Handle("/inference/", a.inferenceProxy(cfg.InferenceURL))
	}
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}
	return mux
}

// RegisterRoutes registers all conduct API routes into the given Forge router
// with full OpenAPI metadata.
func (a *API) RegisterRoutes(router forge.Router) {
	a.registerWorkflowRoutes(router)
	a.registerCapabilityRoutes(router)
	a.registerRunRoutes(router)
	a.registerScheduleRoutes(router)
}

// registerWorkflowRoutes registers workflow management routes.
func (a *API) registerWorkflowRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("workflows"))

	_ = g.POST("/workflows", a.saveWorkflow,
		forge.WithSummary("Save workflow"),
		forge.WithDescription("Creates or replaces a workflow. A missing ID is assigned."),
		forge.WithOperationID("saveWorkflow"),
		forge.WithRequestSchema(SaveWorkflowRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Saved workflow ID", SaveWorkflowResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/workflows", a.listWorkflows,
		forge.WithSummary("List workflows"),
		forge.WithDescription("Returns summaries of all stored workflows."),
		forge.WithOperationID("listWorkflows"),
		forge.WithResponseSchema(http.StatusOK, "Workflow summaries", []workflow.Summary{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/workflows/:workflowId", a.getWorkflow,
		forge.WithSummary("Get workflow"),
		forge.WithDescription("Returns the full workflow document including its nodes."),
		forge.WithOperationID("getWorkflow"),
		forge.WithResponseSchema(http.StatusOK, "Workflow details", &workflow.Workflow{}),
		forge.WithErrorResponses(),
	)

	_ = g.DELETE("/workflows/:workflowId", a.deleteWorkflow,
		forge.WithSummary("Delete workflow"),
		forge.WithDescription("Removes a workflow. Deleting an unknown ID is not an error."),
		forge.WithOperationID("deleteWorkflow"),
		forge.WithResponseSchema(http.StatusOK, "Deletion result", DeleteWorkflowResponse{}),
		forge.WithErrorResponses(),
	)
}

// registerCapabilityRoutes registers capability discovery routes.
func (a *API) registerCapabilityRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("capabilities"))

	_ = g.GET("/capabilities", a.listCapabilities,
		forge.WithSummary("List capabilities"),
		forge.WithDescription("Returns the registered capabilities keyed by name."),
		forge.WithOperationID("listCapabilities"),
		forge.WithResponseSchema(http.StatusOK, "Capability map", ListCapabilitiesResponse{}),
		forge.WithErrorResponses(),
	)
}

// registerRunRoutes registers run management routes.
func (a *API) registerRunRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("runs"))

	_ = g.POST("/workflows/:workflowId/run", a.startRun,
		forge.WithSummary("Start run"),
		forge.WithDescription("Starts a workflow run and returns its ID immediately."),
		forge.WithOperationID("startRun"),
		forge.WithRequestSchema(StartRunRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Started run ID", StartRunResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/runs", a.listRuns,
		forge.WithSummary("List runs"),
		forge.WithDescription("Returns runs filtered by state and workflow."),
		forge.WithOperationID("listRuns"),
		forge.WithRequestSchema(ListRunsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Run list", []*workflow.Run{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/runs/:runId", a.getRun,
		forge.WithSummary("Get run"),
		forge.WithDescription("Returns a run with its full log."),
		forge.WithOperationID("getRun"),
		forge.WithResponseSchema(http.StatusOK, "Run details", &workflow.Run{}),
		forge.WithErrorResponses(),
	)

	if err := router.EventStream("/v1/runs/stream", a.streamRuns); err != nil {
		a.logger.Error("failed to register run stream route", slog.String("error", err.Error()))
	}
}

// registerScheduleRoutes registers schedule management routes.
func (a *API) registerScheduleRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("schedules"))

	_ = g.POST("/workflows/:workflowId/schedule", a.createSchedule,
		forge.WithSummary("Schedule workflow"),
		forge.WithDescription("Registers a cron schedule for a workflow."),
		forge.WithOperationID("scheduleWorkflow"),
		forge.WithRequestSchema(ScheduleRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Schedule record", &cron.Schedule{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/schedules", a.listSchedules,
		forge.WithSummary("List schedules"),
		forge.WithDescription("Returns all registered schedules."),
		forge.WithOperationID("listSchedules"),
		forge.WithResponseSchema(http.StatusOK, "Schedule list", []*cron.Schedule{}),
		forge.WithErrorResponses(),
	)

	_ = g.POST("/schedules/:scheduleId/enable", a.enableSchedule,
		forge.WithSummary("Enable schedule"),
		forge.WithDescription("Enables a disabled schedule and recomputes its next fire time."),
		forge.WithOperationID("enableSchedule"),
		forge.WithResponseSchema(http.StatusOK, "Enabled schedule", &cron.Schedule{}),
		forge.WithErrorResponses(),
	)

	_ = g.POST("/schedules/:scheduleId/disable", a.disableSchedule,
		forge.WithSummary("Disable schedule"),
		forge.WithDescription("Disables a schedule so it no longer fires."),
		forge.WithOperationID("disableSchedule"),
		forge.WithResponseSchema(http.StatusOK, "Disabled schedule", &cron.Schedule{}),
		forge.WithErrorResponses(),
	)

	_ = g.DELETE("/schedules/:scheduleId", a.deleteSchedule,
		forge.WithSummary("Delete schedule"),
		forge.WithDescription("Permanently removes a schedule."),
		forge.WithOperationID("deleteSchedule"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}
