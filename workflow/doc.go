// Package workflow defines the workflow and run model, the parameter
// renderer, the node executor, the run tracker, and the engine loop that
// drives a run from its first node to a terminal state.
//
// # Model
//
// A [Workflow] is a named, ordered list of [Node] values persisted under a
// unique identifier. Each node references a capability by name and carries
// string fields (action verb, targets, payloads) that stay immutable
// template text until rendered against the caller's parameters at run time.
//
// A [Run] is one execution of a workflow: a derived identifier, a status
// that moves one-way from running to completed or failed, and an
// append-only ordered log.
//
// # Execution
//
// [Runner.Start] loads the workflow, creates the run through [Tracker],
// and returns the run ID immediately; the node loop proceeds on its own
// goroutine. Per node the loop renders fields, resolves the capability
// through the run's [ExecContext] (instances are cached per run, never
// shared across runs), and executes. The first node failure ends the run
// as failed; remaining nodes do not execute. There is no retry, no
// per-node timeout, and no cancellation once a run has started.
package workflow
