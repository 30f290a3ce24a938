package core

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single conversation turn handed to the memory engine.
// System turns are never stored and never contribute facts.
type Message struct {
	// Role is one of RoleUser, RoleAssistant, RoleSystem.
	Role string `json:"role"`

	// Content is the turn text.
	Content string `json:"content"`

	// Name optionally identifies the actor behind the turn.
	Name string `json:"name,omitempty"`
}
