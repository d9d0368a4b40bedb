package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn authored by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks a turn authored by the model.
	RoleAssistant Role = "assistant"
)

// DefaultSessionID is used when the caller supplies no session id.
const DefaultSessionID = "default"

// Turn is a single message in a session's conversational history.
type Turn struct {
	Role    Role
	Content string
}
