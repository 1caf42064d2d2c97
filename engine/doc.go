// Package engine wires all Conduct subsystems together and provides
// the primary application-level API for managing workflows, runs, and
// schedules.
//
// The engine package exists to break a fundamental import cycle: the root
// conduct package defines Entity (imported by workflow, cron, etc.) and
// therefore cannot import those packages back. Engine sits above all
// subsystem packages and below the application layer.
//
// # Building an Engine
//
//	c, err := conduct.New(
//	    conduct.WithStore(memory.New()),
//	    conduct.WithLogger(logger),
//	)
//
//	eng, err := engine.Build(c,
//	    engine.WithStreamBroker(stream.NewBroker(logger)),
//	    engine.WithExtension(myExtension),
//	    engine.WithMiddleware(myMiddleware),
//	)
//
// # Registering Capabilities
//
//	eng.RegisterCapability("echo", "records calls", echo.Factory)
//
// # Workflows and Runs
//
//	wf := &workflow.Workflow{Name: "greeting", Nodes: ...}
//	eng.SaveWorkflow(ctx, wf)
//	runID, err := eng.StartRun(ctx, wf.ID, map[string]string{"name": "world"})
//
// # Schedules
//
//	sched, err := eng.Schedule(ctx, wf.ID, "0 9 * * *")
package engine
