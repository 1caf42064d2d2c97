package conduct

import "github.com/xraph/conduct/id"

// ID is the primary identifier type for Conduct entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

// RunID identifies a single workflow execution. Unlike ID it is derived
// from the parent workflow ID and the start timestamp rather than generated.
type RunID = id.RunID
