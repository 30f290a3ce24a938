package core

// Memory operation events.
const (
	EventAdd    = "ADD"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
	EventNone   = "NONE"
)

// OperationResult is the caller-facing outcome of one memory operation.
// A reconciliation run returns one result per executed operation, in the
// order the operations were decided.
type OperationResult struct {
	// ID is the stable record identifier. Empty for NONE results.
	ID string `json:"id,omitempty"`

	// Memory is the memory text after the operation.
	Memory string `json:"memory"`

	// Event is one of EventAdd, EventUpdate, EventDelete, EventNone.
	Event string `json:"event"`

	// PreviousMemory carries the replaced text for UPDATE results.
	PreviousMemory string `json:"previous_memory,omitempty"`

	// ActorID and Role are set on raw-ingested results only.
	ActorID string `json:"actor_id,omitempty"`
	Role    string `json:"role,omitempty"`
}
