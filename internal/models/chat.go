package models

import (
	"database/sql"
	"fmt"
	"time"
)

// ChatType discriminates direct and group chats.
type ChatType string

const (
	ChatTypeDirect ChatType = "direct"
	ChatTypeGroup  ChatType = "group"
)

// Chat represents a conversation between two or more users.
type Chat struct {
	ID            int64          `db:"id" json:"id"`
	Type          ChatType       `db:"chat_type" json:"type"`
	Name          string         `db:"name" json:"name,omitempty"`
	DirectKey     sql.NullString `db:"direct_key" json:"-"`
	LastMessageID *int64         `db:"last_message_id" json:"last_message_id,omitempty"`
	LastActivity  time.Time      `db:"last_activity" json:"last_activity"`
	Active        bool           `db:"active" json:"active"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// Participant is a chat membership row.
type Participant struct {
	ChatID   int64     `db:"chat_id" json:"chat_id"`
	UserID   int64     `db:"user_id" json:"user_id"`
	IsAdmin  bool      `db:"is_admin" json:"is_admin"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// ChatSummary is the API view of a chat for one user.
type ChatSummary struct {
	Chat
	Participants []Participant `json:"participants"`
	UnreadCount  int           `json:"unread_count"`
}

// DirectChatKey builds the canonical key for a direct chat so that at most
// one chat exists per unordered user pair.
func DirectChatKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}
