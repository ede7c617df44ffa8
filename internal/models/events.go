package models

import "time"

// Server-to-client event names carried over the live channel.
const (
	EventNewMessage        = "newMessage"
	EventMessageAdded      = "messageAdded"
	EventMessageEdited     = "messageEdited"
	EventMessageDeleted    = "messageDeleted"
	EventMessageReaction   = "messageReaction"
	EventReactionRemoved   = "reactionRemoved"
	EventUserTyping        = "userTyping"
	EventUserStoppedTyping = "userStoppedTyping"
	EventUserOnline        = "userOnline"
	EventUserOffline       = "userOffline"
	EventMessageDelivered  = "messageDelivered"
	EventMessageRead       = "messageRead"
	EventError             = "error"
)

// Client-to-server event names.
const (
	ClientEventSendMessage      = "sendMessage"
	ClientEventTyping           = "typing"
	ClientEventStopTyping       = "stopTyping"
	ClientEventJoinChat         = "joinChat"
	ClientEventLeaveChat        = "leaveChat"
	ClientEventAddReaction      = "addReaction"
	ClientEventEditMessage      = "editMessage"
	ClientEventRemoveReaction   = "removeReaction"
	ClientEventDeleteMessage    = "deleteMessage"
	ClientEventMessageDelivered = "messageDelivered"
	ClientEventMessageRead      = "messageRead"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ClientEvent is the envelope read from websocket clients.
type ClientEvent struct {
	Type       string      `json:"type"`
	ChatID     int64       `json:"chat_id,omitempty"`
	MessageID  int64       `json:"message_id,omitempty"`
	MsgType    MessageType `json:"msg_type,omitempty"`
	Content    string      `json:"content,omitempty"`
	Emoji      string      `json:"emoji,omitempty"`
	ReplyToID  *int64      `json:"reply_to_id,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// NewMessagePayload accompanies newMessage and messageAdded events.
type NewMessagePayload struct {
	Message Message `json:"message"`
	Chat    Chat    `json:"chat"`
}

type MessageEditedPayload struct {
	MessageID  int64     `json:"message_id"`
	NewContent string    `json:"new_content"`
	EditedAt   time.Time `json:"edited_at"`
}

type MessageDeletedPayload struct {
	MessageID int64     `json:"message_id"`
	DeletedBy int64     `json:"deleted_by"`
	DeletedAt time.Time `json:"deleted_at"`
}

type ReactionPayload struct {
	MessageID int64    `json:"message_id"`
	Reaction  Reaction `json:"reaction"`
}

type ReactionRemovedPayload struct {
	MessageID int64 `json:"message_id"`
	UserID    int64 `json:"user_id"`
}

type TypingPayload struct {
	UserID int64 `json:"user_id"`
	ChatID int64 `json:"chat_id"`
}

type PresencePayload struct {
	UserID     int64      `json:"user_id"`
	LastActive *time.Time `json:"last_active,omitempty"`
}

// ReceiptPayload confirms a delivered/read mark to the message sender.
type ReceiptPayload struct {
	MessageID int64     `json:"message_id"`
	UserID    int64     `json:"user_id"`
	At        time.Time `json:"at"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
