package workflow_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/capability"
	"github.com/xraph/conduct/capability/echo"
	"github.com/xraph/conduct/id"
	"github.com/xraph/conduct/middleware"
	"github.com/xraph/conduct/store/memory"
	"github.com/xraph/conduct/workflow"
)

// recordingEmitter records run lifecycle events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (e *recordingEmitter) record(ev string) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func (e *recordingEmitter) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	copy(out, e.events)
	return out
}

func (e *recordingEmitter) EmitRunStarted(context.Context, *workflow.Run) { e.record("run_started") }
func (e *recordingEmitter) EmitNodeCompleted(context.Context, *workflow.Run, int, workflow.Node) {
	e.record("node_completed")
}
func (e *recordingEmitter) EmitNodeFailed(context.Context, *workflow.Run, int, workflow.Node, error) {
	e.record("node_failed")
}
func (e *recordingEmitter) EmitRunCompleted(context.Context, *workflow.Run, time.Duration) {
	e.record("run_completed")
}
func (e *recordingEmitter) EmitRunFailed(context.Context, *workflow.Run, error) {
	e.record("run_failed")
}

func newTestRunner(t *testing.T, store workflow.Store, reg *capability.Registry, emitter workflow.RunEmitter) *workflow.Runner {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	mw := middleware.Chain(middleware.Recover(logger))
	return workflow.NewRunner(reg, store, workflow.NewTracker(store), emitter, mw, logger)
}

// waitTerminal polls until the run reaches a terminal state.
func waitTerminal(t *testing.T, store workflow.Store, runID id.RunID) *workflow.Run {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		run, err := store.GetRun(context.Background(), runID)
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

func saveWorkflow(t *testing.T, store workflow.Store, name string, nodes ...workflow.Node) *workflow.Workflow {
	t.Helper()
	wf := &workflow.Workflow{
		Entity: conduct.NewEntity(),
		ID:     id.NewWorkflowID(),
		Name:   name,
		Nodes:  nodes,
	}
	if err := store.UpsertWorkflow(context.Background(), wf); err != nil {
		t.Fatalf("UpsertWorkflow: %v", err)
	}
	return wf
}

func TestRunner_CompletesAndLogs(t *testing.T) {
	store := memory.New()
	reg := capability.NewRegistry()
	e := echo.New()
	reg.Register("echo", "records calls", func() capability.Capability { return e })

	emitter := &recordingEmitter{}
	runner := newTestRunner(t, store, reg, emitter)

	wf := saveWorkflow(t, store, "greeting",
		workflow.Node{Capability: "echo", Fields: map[string]string{"action": "say", "text": "hello {{name}}"}},
		workflow.Node{Capability: "echo", Fields: map[string]string{"action": "say", "text": "bye {{name}}"}},
	)

	runID, err := runner.Start(context.Background(), wf.ID, map[string]string{"name": "world"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	run := waitTerminal(t, store, runID)
	if run.State != workflow.RunStateCompleted {
		t.Fatalf("State = %q, want completed", run.State)
	}

	want := []string{"echo ok", "echo ok", "completed"}
	if len(run.Logs) != len(want) {
		t.Fatalf("got %d log entries %v, want %d", len(run.Logs), run.Logs, len(want))
	}
	for i, msg := range want {
		if run.Logs[i].Message != msg {
			t.Errorf("Logs[%d] = %q, want %q", i, run.Logs[i].Message, msg)
		}
		if run.Logs[i].Level != workflow.LevelInfo {
			t.Errorf("Logs[%d] level = %q, want info", i, run.Logs[i].Level)
		}
	}

	calls := e.Calls()
	if len(calls) != 2 {
		t.Fatalf("got %d capability calls, want 2", len(calls))
	}
	if calls[0].Fields["text"] != "hello world" {
		t.Errorf("rendered text = %q, want %q", calls[0].Fields["text"], "hello world")
	}
	if calls[1].Fields["text"] != "bye world" {
		t.Errorf("rendered text = %q, want %q", calls[1].Fields["text"], "bye world")
	}

	events := emitter.snapshot()
	wantEvents := []string{"run_started", "node_completed", "node_completed", "run_completed"}
	if len(events) != len(wantEvents) {
		t.Fatalf("events = %v, want %v", events, wantEvents)
	}
	for i := range wantEvents {
		if events[i] != wantEvents[i] {
			t.Fatalf("events = %v, want %v", events, wantEvents)
		}
	}
}

func TestRunner_FailFast(t *testing.T) {
	store := memory.New()
	reg := capability.NewRegistry()

	var after int
	reg.Register("boom", "always fails", func() capability.Capability {
		return capability.Func(func(context.Context, string, map[string]string) (capability.Result, error) {
			return nil, errors.New("exploded")
		})
	})
	reg.Register("counter", "counts calls after the failure", func() capability.Capability {
		return capability.Func(func(context.Context, string, map[string]string) (capability.Result, error) {
			after++
			return capability.Result{}, nil
		})
	})

	emitter := &recordingEmitter{}
	runner := newTestRunner(t, store, reg, emitter)

	wf := saveWorkflow(t, store, "fails-midway",
		workflow.Node{Capability: "counter", Fields: map[string]string{"action": "x"}},
		workflow.Node{Capability: "boom", Fields: map[string]string{"action": "x"}},
		workflow.Node{Capability: "counter", Fields: map[string]string{"action": "x"}},
	)

	runID, err := runner.Start(context.Background(), wf.ID, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	run := waitTerminal(t, store, runID)
	if run.State != workflow.RunStateFailed {
		t.Fatalf("State = %q, want failed", run.State)
	}
	if after != 1 {
		t.Errorf("nodes after the failure ran: counter called %d times, want 1", after)
	}

	if len(run.Logs) != 2 {
		t.Fatalf("got %d log entries %v, want 2", len(run.Logs), run.Logs)
	}
	if run.Logs[0].Message != "counter ok" {
		t.Errorf("Logs[0] = %q", run.Logs[0].Message)
	}
	last := run.Logs[1]
	if last.Level != workflow.LevelError {
		t.Errorf("failure entry level = %q, want error", last.Level)
	}

	events := emitter.snapshot()
	if len(events) == 0 || events[len(events)-1] != "run_failed" {
		t.Fatalf("events = %v, want trailing run_failed", events)
	}
}

func TestRunner_UnknownCapabilityFailsRun(t *testing.T) {
	store := memory.New()
	runner := newTestRunner(t, store, capability.NewRegistry(), &recordingEmitter{})

	wf := saveWorkflow(t, store, "bad-capability",
		workflow.Node{Capability: "missing", Fields: map[string]string{"action": "x"}},
	)

	runID, err := runner.Start(context.Background(), wf.ID, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	run := waitTerminal(t, store, runID)
	if run.State != workflow.RunStateFailed {
		t.Fatalf("State = %q, want failed", run.State)
	}
}

func TestRunner_PanicBecomesFailure(t *testing.T) {
	store := memory.New()
	reg := capability.NewRegistry()
	reg.Register("panicker", "panics", func() capability.Capability {
		return capability.Func(func(context.Context, string, map[string]string) (capability.Result, error) {
			panic("kaboom")
		})
	})

	runner := newTestRunner(t, store, reg, &recordingEmitter{})
	wf := saveWorkflow(t, store, "panics",
		workflow.Node{Capability: "panicker", Fields: map[string]string{"action": "x"}},
	)

	runID, err := runner.Start(context.Background(), wf.ID, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	run := waitTerminal(t, store, runID)
	if run.State != workflow.RunStateFailed {
		t.Fatalf("State = %q, want failed", run.State)
	}
}

func TestRunner_UnknownWorkflow(t *testing.T) {
	runner := newTestRunner(t, memory.New(), capability.NewRegistry(), &recordingEmitter{})
	_, err := runner.Start(context.Background(), id.NewWorkflowID(), nil)
	if !errors.Is(err, conduct.ErrWorkflowNotFound) {
		t.Fatalf("got %v, want ErrWorkflowNotFound", err)
	}
}

func TestRunner_SharedInstanceWithinRun(t *testing.T) {
	store := memory.New()
	reg := capability.NewRegistry()

	// Counting factory: the runner must create at most one instance
	// per capability per run.
	var factoryCalls int
	reg.Register("echo", "records calls", func() capability.Capability {
		factoryCalls++
		return echo.New()
	})

	runner := newTestRunner(t, store, reg, &recordingEmitter{})
	wf := saveWorkflow(t, store, "stateful",
		workflow.Node{Capability: "echo", Fields: map[string]string{"action": "a"}},
		workflow.Node{Capability: "echo", Fields: map[string]string{"action": "b"}},
		workflow.Node{Capability: "echo", Fields: map[string]string{"action": "c"}},
	)

	runID, err := runner.Start(context.Background(), wf.ID, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitTerminal(t, store, runID)

	if factoryCalls != 1 {
		t.Fatalf("factory called %d times in one run, want 1", factoryCalls)
	}

	// A second run gets its own instance.
	runID2, err := runner.Start(context.Background(), wf.ID, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitTerminal(t, store, runID2)

	if factoryCalls != 2 {
		t.Fatalf("factory called %d times across two runs, want 2", factoryCalls)
	}
}

func TestRunner_NilDependenciesDefault(t *testing.T) {
	store := memory.New()
	reg := capability.NewRegistry()
	reg.Register("echo", "records calls", echo.Factory)
	wf := saveWorkflow(t, store, "bare",
		workflow.Node{Capability: "echo", Fields: map[string]string{"action": "say"}},
	)

	// Nil emitter, middleware, and logger all fall back to defaults.
	runner := workflow.NewRunner(reg, store, workflow.NewTracker(store), nil, nil, nil)

	runID, err := runner.Start(context.Background(), wf.ID, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	run := waitTerminal(t, store, runID)
	if run.State != workflow.RunStateCompleted {
		t.Fatalf("state = %q, want %q", run.State, workflow.RunStateCompleted)
	}
}
