// Package conduct provides an automation-workflow runner for Go. Named
// capabilities (pluggable action handlers) are composed into ordered
// workflows and executed on demand or on a cron schedule. Every execution
// produces a persisted, append-only log and a terminal status.
//
// Conduct is designed as a library with a thin HTTP surface on top. Import
// it, configure a store, register capabilities, and save workflows as plain
// documents.
//
// # Quick Start
//
//	c, err := conduct.New(
//	    conduct.WithStore(memory.New()),
//	    conduct.WithLogger(logger),
//	)
//
// # Architecture
//
// Conduct follows a composable store pattern: the workflow and cron
// subsystems each define their own store interface and a single backend
// (memory, mongo) implements both. The engine package wires the capability
// registry, workflow runner, scheduler, and stream broker together.
//
// Workflow and schedule IDs use TypeID — type-prefixed, K-sortable,
// UUIDv7-based identifiers. Run IDs are derived from the parent workflow ID
// plus the start timestamp.
package conduct
