package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/cron"
	"github.com/xraph/conduct/id"
	"github.com/xraph/conduct/store/memory"
	"github.com/xraph/conduct/workflow"
)

func newWorkflow(name string) *workflow.Workflow {
	return &workflow.Workflow{
		Entity: conduct.NewEntity(),
		ID:     id.NewWorkflowID(),
		Name:   name,
		Nodes: []workflow.Node{
			{Capability: "echo", Fields: map[string]string{"action": "say", "text": "{{text}}"}},
		},
	}
}

func newRun(wfID id.WorkflowID, startedAt time.Time) *workflow.Run {
	return &workflow.Run{
		Entity:     conduct.NewEntity(),
		ID:         id.NewRunID(wfID, startedAt),
		WorkflowID: wfID,
		State:      workflow.RunStateRunning,
		StartedAt:  startedAt,
		Logs:       []workflow.LogEntry{},
	}
}

func TestWorkflow_UpsertGetDelete(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	wf := newWorkflow("greeting")
	if err := s.UpsertWorkflow(ctx, wf); err != nil {
		t.Fatalf("UpsertWorkflow: %v", err)
	}

	got, err := s.GetWorkflow(ctx, wf.ID)
	if err != nil {
		t.Fatalf("GetWorkflow: %v", err)
	}
	if got.Name != "greeting" || len(got.Nodes) != 1 {
		t.Fatalf("got %+v", got)
	}

	// Upsert replaces.
	wf.Name = "greeting-v2"
	if err := s.UpsertWorkflow(ctx, wf); err != nil {
		t.Fatalf("UpsertWorkflow replace: %v", err)
	}
	got, err = s.GetWorkflow(ctx, wf.ID)
	if err != nil {
		t.Fatalf("GetWorkflow: %v", err)
	}
	if got.Name != "greeting-v2" {
		t.Fatalf("Name = %q, want greeting-v2", got.Name)
	}

	if err := s.DeleteWorkflow(ctx, wf.ID); err != nil {
		t.Fatalf("DeleteWorkflow: %v", err)
	}
	if _, err := s.GetWorkflow(ctx, wf.ID); !errors.Is(err, conduct.ErrWorkflowNotFound) {
		t.Fatalf("GetWorkflow after delete = %v, want ErrWorkflowNotFound", err)
	}

	// Deleting again is not an error.
	if err := s.DeleteWorkflow(ctx, wf.ID); err != nil {
		t.Fatalf("DeleteWorkflow twice: %v", err)
	}
}

func TestWorkflow_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	wf := newWorkflow("copy-check")
	if err := s.UpsertWorkflow(ctx, wf); err != nil {
		t.Fatalf("UpsertWorkflow: %v", err)
	}

	got, err := s.GetWorkflow(ctx, wf.ID)
	if err != nil {
		t.Fatalf("GetWorkflow: %v", err)
	}
	got.Nodes[0].Fields["text"] = "mutated"

	again, err := s.GetWorkflow(ctx, wf.ID)
	if err != nil {
		t.Fatalf("GetWorkflow: %v", err)
	}
	if again.Nodes[0].Fields["text"] != "{{text}}" {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestListWorkflows(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	a := newWorkflow("a")
	a.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newWorkflow("b")
	b.CreatedAt = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	// Insert out of order.
	if err := s.UpsertWorkflow(ctx, b); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertWorkflow(ctx, a); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListWorkflows(ctx)
	if err != nil {
		t.Fatalf("ListWorkflows: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d workflows, want 2", len(list))
	}
	if list[0].Name != "a" || list[1].Name != "b" {
		t.Fatalf("order: %q, %q", list[0].Name, list[1].Name)
	}
}

func TestRun_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	wfID := id.NewWorkflowID()
	started := time.Now().UTC()
	run := newRun(wfID, started)

	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	dup := newRun(wfID, started)
	if err := s.CreateRun(ctx, dup); !errors.Is(err, conduct.ErrRunAlreadyExists) {
		t.Fatalf("CreateRun duplicate = %v, want ErrRunAlreadyExists", err)
	}
}

func TestRun_AppendAndState(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	run := newRun(id.NewWorkflowID(), time.Now().UTC())
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	entries := []workflow.LogEntry{
		{Timestamp: time.Now().UTC(), Level: workflow.LevelInfo, Message: "echo ok"},
		{Timestamp: time.Now().UTC(), Level: workflow.LevelInfo, Message: "completed"},
	}
	for _, e := range entries {
		if err := s.AppendRunLog(ctx, run.ID, e); err != nil {
			t.Fatalf("AppendRunLog: %v", err)
		}
	}

	finished := time.Now().UTC()
	if err := s.SetRunState(ctx, run.ID, workflow.RunStateCompleted, finished); err != nil {
		t.Fatalf("SetRunState: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.State != workflow.RunStateCompleted {
		t.Errorf("State = %q, want completed", got.State)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, finished)
	}
	if len(got.Logs) != 2 {
		t.Fatalf("got %d log entries, want 2", len(got.Logs))
	}
	if got.Logs[0].Message != "echo ok" || got.Logs[1].Message != "completed" {
		t.Errorf("log order: %q, %q", got.Logs[0].Message, got.Logs[1].Message)
	}

	if err := s.AppendRunLog(ctx, id.RunID("nope"), workflow.LogEntry{}); !errors.Is(err, conduct.ErrRunNotFound) {
		t.Errorf("AppendRunLog unknown run = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns_FilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	wfA := id.NewWorkflowID()
	wfB := id.NewWorkflowID()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	runs := []*workflow.Run{
		newRun(wfA, base.Add(2*time.Second)),
		newRun(wfA, base),
		newRun(wfB, base.Add(time.Second)),
	}
	for _, r := range runs {
		if err := s.CreateRun(ctx, r); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
	}
	if err := s.SetRunState(ctx, runs[1].ID, workflow.RunStateFailed, base.Add(time.Minute)); err != nil {
		t.Fatalf("SetRunState: %v", err)
	}

	all, err := s.ListRuns(ctx, workflow.ListRunOpts{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d runs, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].StartedAt.Before(all[i-1].StartedAt) {
			t.Fatal("runs not ordered by start time")
		}
	}

	byWf, err := s.ListRuns(ctx, workflow.ListRunOpts{WorkflowID: wfB})
	if err != nil {
		t.Fatalf("ListRuns by workflow: %v", err)
	}
	if len(byWf) != 1 || byWf[0].WorkflowID.String() != wfB.String() {
		t.Fatalf("workflow filter: %+v", byWf)
	}

	failed, err := s.ListRuns(ctx, workflow.ListRunOpts{State: workflow.RunStateFailed})
	if err != nil {
		t.Fatalf("ListRuns by state: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != runs[1].ID {
		t.Fatalf("state filter: %+v", failed)
	}

	limited, err := s.ListRuns(ctx, workflow.ListRunOpts{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListRuns paged: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("got %d runs, want 2", len(limited))
	}
}

func TestSchedule_CRUD(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	next := time.Now().UTC().Add(time.Minute)
	sched := &cron.Schedule{
		Entity:     conduct.NewEntity(),
		ID:         id.NewScheduleID(),
		WorkflowID: id.NewWorkflowID(),
		Expr:       "0 9 * * *",
		NextRunAt:  &next,
		Enabled:    true,
	}
	if err := s.SaveSchedule(ctx, sched); err != nil {
		t.Fatalf("SaveSchedule: %v", err)
	}

	got, err := s.GetSchedule(ctx, sched.ID)
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if got.Expr != "0 9 * * *" || !got.Enabled {
		t.Fatalf("got %+v", got)
	}

	got.Enabled = false
	if err := s.UpdateSchedule(ctx, got); err != nil {
		t.Fatalf("UpdateSchedule: %v", err)
	}
	again, err := s.GetSchedule(ctx, sched.ID)
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if again.Enabled {
		t.Error("Enabled not persisted")
	}

	list, err := s.ListSchedules(ctx)
	if err != nil {
		t.Fatalf("ListSchedules: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d schedules, want 1", len(list))
	}

	if err := s.DeleteSchedule(ctx, sched.ID); err != nil {
		t.Fatalf("DeleteSchedule: %v", err)
	}
	if _, err := s.GetSchedule(ctx, sched.ID); !errors.Is(err, conduct.ErrScheduleNotFound) {
		t.Fatalf("GetSchedule after delete = %v, want ErrScheduleNotFound", err)
	}

	other := &cron.Schedule{Entity: conduct.NewEntity(), ID: id.NewScheduleID()}
	if err := s.UpdateSchedule(ctx, other); !errors.Is(err, conduct.ErrScheduleNotFound) {
		t.Fatalf("UpdateSchedule unknown = %v, want ErrScheduleNotFound", err)
	}
}
