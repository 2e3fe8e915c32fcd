package domain

import "time"

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatSession groups a user's conversation with the assistant.
type ChatSession struct {
	ID           string
	UserID       string
	Title        string
	CreatedAt    time.Time
	LastAccessed time.Time
}

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	ID        string
	SessionID string
	Role      ChatRole
	Content   string
	CreatedAt time.Time
}
