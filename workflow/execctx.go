package workflow

import "github.com/xraph/conduct/capability"

// ExecContext holds the capability instances created for one run.
// Instances are created lazily on first use and cached per capability
// name, so a stateful capability (one that opens a connection on an
// "open" step and reuses it for later steps) sees the same instance
// across all nodes of the run.
//
// An ExecContext is owned exclusively by its run's goroutine. Nodes
// within one run never execute concurrently, so no locking is needed;
// independent runs each get their own context and never share instances.
type ExecContext struct {
	registry  *capability.Registry
	instances map[string]capability.Capability
}

// NewExecContext creates an execution context resolving against registry.
func NewExecContext(registry *capability.Registry) *ExecContext {
	return &ExecContext{
		registry:  registry,
		instances: make(map[string]capability.Capability),
	}
}

// Capability returns the run-scoped instance for name, creating it on
// first use. Returns conduct.ErrUnknownCapability if name is not
// registered.
func (ec *ExecContext) Capability(name string) (capability.Capability, error) {
	if inst, ok := ec.instances[name]; ok {
		return inst, nil
	}

	factory, err := ec.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	inst := factory()
	ec.instances[name] = inst
	return inst, nil
}
