package dto

import (
	"time"

	"github.com/spec-kit/budget-planner/internal/domain"
	"github.com/spec-kit/budget-planner/internal/repository"
)

// ChatRequest payload for a chat turn.
type ChatRequest struct {
	Message   string  `json:"message"`
	SessionID *string `json:"session_id,omitempty"`
}

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// ChatSessionResponse is one entry of the session listing.
type ChatSessionResponse struct {
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	MessageCount int       `json:"message_count"`
}

// ChatMessageResponse is one turn of a session history.
type ChatMessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatSessionResponse maps a session summary to its public view.
func NewChatSessionResponse(summary repository.ChatSessionSummary) ChatSessionResponse {
	return ChatSessionResponse{
		SessionID:    summary.Session.ID,
		Title:        summary.Session.Title,
		CreatedAt:    summary.Session.CreatedAt,
		LastAccessed: summary.Session.LastAccessed,
		MessageCount: summary.MessageCount,
	}
}

// NewChatMessageResponse maps a message to its public view.
func NewChatMessageResponse(msg domain.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.CreatedAt,
	}
}
