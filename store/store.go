// Package store defines the aggregate persistence interface. Each subsystem
// (workflow, cron) defines its own store interface. The composite Store
// composes them all. Backends: Mongo and Memory.
package store

import (
	"context"

	"github.com/xraph/conduct/cron"
	"github.com/xraph/conduct/workflow"
)

// Store is the aggregate persistence interface.
// Each subsystem store is a composable interface; a single backend
// (mongo, memory) implements all of them.
type Store interface {
	workflow.Store
	cron.Store

	// Migrate prepares the backing schema (indexes, collections).
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
