package workflow

import (
	"time"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/id"
)

// Node is one step of a workflow. Capability names the handler to invoke;
// Fields is the open set of string fields that capability interprets,
// including the "action" verb. Fields hold template text until rendered —
// rendering never mutates the stored definition.
type Node struct {
	Capability string            `json:"capability"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// Action returns the node's action verb (the "action" field).
func (n Node) Action() string { return n.Fields[ActionField] }

// ActionField is the reserved field key holding a node's action verb.
const ActionField = "action"

// Workflow is a named, ordered list of nodes. Node order is execution
// order. The store is the sole persistent owner; the engine only holds a
// transient read-only copy while executing.
type Workflow struct {
	conduct.Entity

	ID    id.WorkflowID `json:"id"`
	Name  string        `json:"name"`
	Nodes []Node        `json:"nodes"`
}

// Summary is the listing view of a workflow: identity and metadata
// without the node bodies.
type Summary struct {
	ID        id.WorkflowID `json:"id"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"created_at"`
}

// Summary returns the listing view of this workflow.
func (w *Workflow) Summary() Summary {
	return Summary{ID: w.ID, Name: w.Name, CreatedAt: w.CreatedAt}
}
