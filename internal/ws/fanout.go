package ws

import (
	"log/slog"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
)

// Fanout delivers committed writes to live recipients. It implements
// services.Emitter. Delivery is best-effort: persistence is the source of
// truth and a dropped live event is recovered by the next history fetch.
type Fanout struct {
	hub *Hub
	log *slog.Logger
}

// NewFanout builds a Fanout over the hub.
func NewFanout(hub *Hub, log *slog.Logger) *Fanout {
	return &Fanout{hub: hub, log: log}
}

// NewMessage emits newMessage to every participant's personal room except
// the sender, then messageAdded to the chat room for in-room listeners.
func (f *Fanout) NewMessage(msg models.Message, chat models.Chat, participantIDs []int64) {
	payload := models.NewMessagePayload{Message: msg, Chat: chat}

	for _, id := range participantIDs {
		if id == msg.SenderID {
			continue
		}
		f.hub.EmitToUser(id, models.Event{Type: models.EventNewMessage, Payload: payload})
	}
	f.hub.EmitToChat(msg.ChatID, models.Event{Type: models.EventMessageAdded, Payload: payload}, 0)
	observability.IncFanout(models.EventNewMessage)
}

func (f *Fanout) MessageEdited(participantIDs []int64, payload models.MessageEditedPayload) {
	f.emitToAll(participantIDs, models.Event{Type: models.EventMessageEdited, Payload: payload})
}

func (f *Fanout) MessageDeleted(participantIDs []int64, payload models.MessageDeletedPayload) {
	f.emitToAll(participantIDs, models.Event{Type: models.EventMessageDeleted, Payload: payload})
}

func (f *Fanout) ReactionAdded(participantIDs []int64, payload models.ReactionPayload) {
	f.emitToAll(participantIDs, models.Event{Type: models.EventMessageReaction, Payload: payload})
}

func (f *Fanout) ReactionRemoved(participantIDs []int64, payload models.ReactionRemovedPayload) {
	f.emitToAll(participantIDs, models.Event{Type: models.EventReactionRemoved, Payload: payload})
}

// ReceiptConfirmed notifies the sender's personal room of a delivered/read
// acknowledgement.
func (f *Fanout) ReceiptConfirmed(senderID int64, event string, payload models.ReceiptPayload) {
	f.hub.EmitToUser(senderID, models.Event{Type: event, Payload: payload})
	observability.IncFanout(event)
}

func (f *Fanout) emitToAll(participantIDs []int64, event models.Event) {
	for _, id := range participantIDs {
		f.hub.EmitToUser(id, event)
	}
	observability.IncFanout(event.Type)
}
