package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Chat struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ProjectID string    `json:"project_id,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSummary is a chat as shown in a chat list.
type ChatSummary struct {
	Chat
	MessageCount int       `json:"message_count"`
	LastMessage  string    `json:"last_message,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MessageHit is a message matched by a history search.
type MessageHit struct {
	ChatMessage
	ChatTitle string `json:"chat_title"`
	ProjectID string `json:"project_id,omitempty"`
}

type ChatReply struct {
	ChatID    string            `json:"chat_id"`
	MessageID string            `json:"message_id"`
	Response  string            `json:"response"`
	Sources   []RetrievalResult `json:"sources"`
}
