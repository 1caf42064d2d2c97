package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/capability/echo"
	"github.com/xraph/conduct/engine"
	"github.com/xraph/conduct/id"
	"github.com/xraph/conduct/store/memory"
	"github.com/xraph/conduct/stream"
	"github.com/xraph/conduct/workflow"
)

func newTestEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	c, err := conduct.New(
		conduct.WithStore(memory.New()),
		conduct.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		t.Fatalf("conduct.New: %v", err)
	}
	eng, err := engine.Build(c, opts...)
	if err != nil {
		t.Fatalf("engine.Build: %v", err)
	}
	return eng
}

func waitTerminal(t *testing.T, eng *engine.Engine, runID id.RunID) *workflow.Run {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		run, err := eng.GetRun(context.Background(), runID)
		if err != nil {
			t.Fatalf("GetRun: %v", err)
		}
		if run.State.Terminal() {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("run did not reach a terminal state")
	return nil
}

func TestBuild_RequiresStore(t *testing.T) {
	c, err := conduct.New(conduct.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("conduct.New: %v", err)
	}
	if _, err := engine.Build(c); !errors.Is(err, conduct.ErrNoStore) {
		t.Fatalf("Build without store = %v, want ErrNoStore", err)
	}
}

func TestEngine_WorkflowLifecycle(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	wf := &workflow.Workflow{
		Name: "greeting",
		Nodes: []workflow.Node{
			{Capability: "echo", Fields: map[string]string{"action": "say", "text": "hi {{name}}"}},
		},
	}
	if err := eng.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("SaveWorkflow: %v", err)
	}
	if wf.ID.IsNil() {
		t.Fatal("SaveWorkflow did not assign an ID")
	}

	list, err := eng.ListWorkflows(ctx)
	if err != nil {
		t.Fatalf("ListWorkflows: %v", err)
	}
	if len(list) != 1 || list[0].Name != "greeting" {
		t.Fatalf("list = %+v", list)
	}

	if err := eng.DeleteWorkflow(ctx, wf.ID); err != nil {
		t.Fatalf("DeleteWorkflow: %v", err)
	}
	if _, err := eng.GetWorkflow(ctx, wf.ID); !errors.Is(err, conduct.ErrWorkflowNotFound) {
		t.Fatalf("GetWorkflow after delete = %v, want ErrWorkflowNotFound", err)
	}
}

func TestEngine_RunEndToEnd(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	eng.RegisterCapability("echo", "records calls", echo.Factory)

	wf := &workflow.Workflow{
		Name: "greeting",
		Nodes: []workflow.Node{
			{Capability: "echo", Fields: map[string]string{"action": "say", "text": "hi {{name}}"}},
		},
	}
	if err := eng.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("SaveWorkflow: %v", err)
	}

	runID, err := eng.StartRun(ctx, wf.ID, map[string]string{"name": "world"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	run := waitTerminal(t, eng, runID)
	if run.State != workflow.RunStateCompleted {
		t.Fatalf("State = %q, want completed", run.State)
	}
	if len(run.Logs) != 2 || run.Logs[0].Message != "echo ok" || run.Logs[1].Message != "completed" {
		t.Fatalf("logs = %+v", run.Logs)
	}
}

func TestEngine_Capabilities(t *testing.T) {
	eng := newTestEngine(t)
	eng.RegisterCapability("echo", "records calls", echo.Factory)

	infos := eng.Capabilities()
	if len(infos) != 1 || infos[0].Name != "echo" || infos[0].Description != "records calls" {
		t.Fatalf("capabilities = %+v", infos)
	}
}

func TestEngine_ScheduleLifecycle(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	wf := &workflow.Workflow{Name: "scheduled", Nodes: []workflow.Node{
		{Capability: "echo", Fields: map[string]string{"action": "say"}},
	}}
	if err := eng.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("SaveWorkflow: %v", err)
	}

	sched, err := eng.Schedule(ctx, wf.ID, "0 9 * * *")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	// Scheduling does not check the workflow exists; a missing target
	// only surfaces when the schedule fires.
	orphan, err := eng.Schedule(ctx, id.NewWorkflowID(), "0 9 * * *")
	if err != nil {
		t.Fatalf("Schedule unknown workflow: %v", err)
	}
	if !orphan.Enabled || orphan.NextRunAt == nil {
		t.Fatalf("orphan schedule not armed: %+v", orphan)
	}

	// Invalid expressions are rejected.
	if _, err := eng.Schedule(ctx, wf.ID, "*/5 * * * *"); !errors.Is(err, conduct.ErrInvalidCronExpression) {
		t.Fatalf("Schedule step expr = %v, want ErrInvalidCronExpression", err)
	}

	if err := eng.DisableSchedule(ctx, sched.ID); err != nil {
		t.Fatalf("DisableSchedule: %v", err)
	}
	got, err := eng.GetSchedule(ctx, sched.ID)
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if got.Enabled {
		t.Error("schedule still enabled after disable")
	}

	if err := eng.EnableSchedule(ctx, sched.ID); err != nil {
		t.Fatalf("EnableSchedule: %v", err)
	}
	got, err = eng.GetSchedule(ctx, sched.ID)
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if !got.Enabled {
		t.Error("schedule not enabled after enable")
	}
	if got.NextRunAt == nil || !got.NextRunAt.After(time.Now().UTC().Add(-time.Minute)) {
		t.Errorf("NextRunAt not recomputed on enable: %v", got.NextRunAt)
	}

	if err := eng.DeleteSchedule(ctx, sched.ID); err != nil {
		t.Fatalf("DeleteSchedule: %v", err)
	}
	if _, err := eng.GetSchedule(ctx, sched.ID); !errors.Is(err, conduct.ErrScheduleNotFound) {
		t.Fatalf("GetSchedule after delete = %v, want ErrScheduleNotFound", err)
	}
}

func TestEngine_ScheduleMissingWorkflowFailsAtFireTime(t *testing.T) {
	s := memory.New()
	c, err := conduct.New(
		conduct.WithStore(s),
		conduct.WithLogger(slog.New(slog.DiscardHandler)),
		conduct.WithTickInterval(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("conduct.New: %v", err)
	}
	eng, err := engine.Build(c)
	if err != nil {
		t.Fatalf("engine.Build: %v", err)
	}
	ctx := context.Background()

	sched, err := eng.Schedule(ctx, id.NewWorkflowID(), "0 9 * * *")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	// Force the schedule due so the next tick fires it.
	past := time.Now().UTC().Add(-time.Minute)
	sched.NextRunAt = &past
	if err := s.UpdateSchedule(ctx, sched); err != nil {
		t.Fatalf("UpdateSchedule: %v", err)
	}

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = c.Stop(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		got, getErr := eng.GetSchedule(ctx, sched.ID)
		if getErr != nil {
			t.Fatalf("GetSchedule: %v", getErr)
		}
		if got.LastRunAt != nil {
			// The failed fire still advances the schedule.
			if got.NextRunAt == nil || !got.NextRunAt.After(*got.LastRunAt) {
				t.Fatalf("schedule did not advance after failed fire: %+v", got)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("schedule never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A fire against a missing workflow starts no run.
	runs, err := eng.ListRuns(ctx, workflow.ListRunOpts{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("runs = %d, want 0", len(runs))
	}
}

func TestEngine_SaveWorkflowExplicitID(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	wfID := id.NewWorkflowID()
	wf := &workflow.Workflow{ID: wfID, Name: "imported", Nodes: []workflow.Node{
		{Capability: "echo", Fields: map[string]string{"action": "say"}},
	}}
	if err := eng.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("SaveWorkflow: %v", err)
	}
	if wf.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped on explicit-ID save")
	}

	got, err := eng.GetWorkflow(ctx, wfID)
	if err != nil {
		t.Fatalf("GetWorkflow: %v", err)
	}
	if got.CreatedAt.IsZero() {
		t.Error("stored workflow has zero CreatedAt")
	}

	// Replacing by ID keeps a real creation timestamp in the listing.
	replacement := &workflow.Workflow{ID: wfID, Name: "imported-v2"}
	if err := eng.SaveWorkflow(ctx, replacement); err != nil {
		t.Fatalf("SaveWorkflow replace: %v", err)
	}
	summaries, err := eng.ListWorkflows(ctx)
	if err != nil {
		t.Fatalf("ListWorkflows: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("workflows = %d, want 1", len(summaries))
	}
	if summaries[0].Name != "imported-v2" || summaries[0].CreatedAt.IsZero() {
		t.Fatalf("summary = %+v", summaries[0])
	}
}

func TestEngine_StreamBrokerReceivesRunEvents(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	broker := stream.NewBroker(logger)
	eng := newTestEngine(t, engine.WithStreamBroker(broker))
	ctx := context.Background()

	if eng.Broker() != broker {
		t.Fatal("Broker() did not return the configured broker")
	}

	eng.RegisterCapability("echo", "records calls", echo.Factory)
	wf := &workflow.Workflow{Name: "streamed", Nodes: []workflow.Node{
		{Capability: "echo", Fields: map[string]string{"action": "say"}},
	}}
	if err := eng.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("SaveWorkflow: %v", err)
	}

	sub := broker.Subscribe("test-sub", stream.TopicRuns)

	runID, err := eng.StartRun(ctx, wf.ID, nil)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	waitTerminal(t, eng, runID)

	// Expect started, node completed, run completed.
	wantTypes := []stream.EventType{
		stream.EventRunStarted,
		stream.EventNodeCompleted,
		stream.EventRunCompleted,
	}
	for _, want := range wantTypes {
		select {
		case evt := <-sub.C():
			if evt.Type != want {
				t.Fatalf("event type = %q, want %q", evt.Type, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q event", want)
		}
	}
}

func TestEngine_ConductorStartStop(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	c := eng.Conductor()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
