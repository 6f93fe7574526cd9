// internal/models/conversation.go
package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ConversationTurn is one stored chat message. Turns are immutable once stored and
// ordered by ID within a session.
type ConversationTurn struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn is a turn before the store assigns its ID and timestamp.
type NewTurn struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	SessionID string `json:"sessionId"`
}

// ChatMessage is one entry of a chat-completions message list.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
