package services

import "messenger-service/internal/models"

// Emitter delivers live events after a write has been committed.
// Implementations are best-effort: a recipient missing a live event still
// sees the data on its next history fetch, so failures never unwind a
// committed write and never surface to the caller.
type Emitter interface {
	// NewMessage emits newMessage to every participant's personal room
	// except the sender, and messageAdded to the chat room.
	NewMessage(msg models.Message, chat models.Chat, participantIDs []int64)
	MessageEdited(participantIDs []int64, payload models.MessageEditedPayload)
	MessageDeleted(participantIDs []int64, payload models.MessageDeletedPayload)
	ReactionAdded(participantIDs []int64, payload models.ReactionPayload)
	ReactionRemoved(participantIDs []int64, payload models.ReactionRemovedPayload)
	// ReceiptConfirmed notifies the message sender's personal room that a
	// recipient acknowledged delivery or read.
	ReceiptConfirmed(senderID int64, event string, payload models.ReceiptPayload)
}

// NopEmitter discards all events. Useful in tests.
type NopEmitter struct{}

func (NopEmitter) NewMessage(models.Message, models.Chat, []int64)              {}
func (NopEmitter) MessageEdited([]int64, models.MessageEditedPayload)           {}
func (NopEmitter) MessageDeleted([]int64, models.MessageDeletedPayload)         {}
func (NopEmitter) ReactionAdded([]int64, models.ReactionPayload)                {}
func (NopEmitter) ReactionRemoved([]int64, models.ReactionRemovedPayload)       {}
func (NopEmitter) ReceiptConfirmed(int64, string, models.ReceiptPayload)        {}
