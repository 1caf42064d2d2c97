package workflow

import (
	"context"
	"fmt"

	"github.com/xraph/conduct/capability"
)

// ExecuteNode resolves the rendered node's capability through the run's
// execution context and invokes it with the node's action verb and
// remaining fields. The capability's result is returned verbatim; any
// failure is propagated tagged with the capability name and a snapshot
// of the rendered fields so the run log can show what was attempted.
func ExecuteNode(ctx context.Context, node Node, ec *ExecContext) (capability.Result, error) {
	inst, err := ec.Capability(node.Capability)
	if err != nil {
		return nil, fmt.Errorf("node: %w", err)
	}

	fields := make(map[string]string, len(node.Fields))
	for k, v := range node.Fields {
		if k == ActionField {
			continue
		}
		fields[k] = v
	}

	res, err := inst.Execute(ctx, node.Action(), fields)
	if err != nil {
		return nil, fmt.Errorf("capability %q (fields %v): %w", node.Capability, fields, err)
	}
	return res, nil
}
