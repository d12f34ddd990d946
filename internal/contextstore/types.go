// Package contextstore keeps the rolling per-user conversation context.
package contextstore

import "time"

// Turn role constants.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxTurns caps the number of turns retained per user. When a save would
// exceed the cap the oldest turns are dropped first.
const MaxTurns = 20

// DefaultTTL is the durable-backend expiry for a user's context, refreshed
// on every write. The in-process fallback does not enforce it.
const DefaultTTL = 7 * 24 * time.Hour

// KeyPrefix is the durable-backend key namespace.
const KeyPrefix = "chat_context:"

// Turn is one exchanged message. Immutable once created.
type Turn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// NewTurn creates a turn stamped with the current time in ISO-8601.
func NewTurn(role, content string) Turn {
	return Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
