package ws

import (
	"context"
	"errors"
	"log/slog"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
)

// Dispatcher routes client events from the live channel into the same
// services the REST surface uses. Failures go back to the originating
// connection only, never broadcast.
type Dispatcher struct {
	messages  *services.MessageService
	receipts  *services.ReceiptService
	reactions *services.ReactionService
	chats     repositories.ChatRepository
	typing    *TypingCoordinator
	hub       *Hub
	log       *slog.Logger
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(messages *services.MessageService, receipts *services.ReceiptService,
	reactions *services.ReactionService, chats repositories.ChatRepository,
	typing *TypingCoordinator, hub *Hub, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		messages:  messages,
		receipts:  receipts,
		reactions: reactions,
		chats:     chats,
		typing:    typing,
		hub:       hub,
		log:       log,
	}
}

// Dispatch handles one inbound client event.
func (d *Dispatcher) Dispatch(ctx context.Context, c *Client, event models.ClientEvent) {
	var err error

	switch event.Type {
	case models.ClientEventSendMessage:
		msgType := event.MsgType
		if msgType == "" {
			msgType = models.MessageTypeText
		}
		_, err = d.messages.Send(ctx, c.userID, event.ChatID, services.SendPayload{
			Type:       msgType,
			Content:    event.Content,
			Attachment: event.Attachment,
			ReplyToID:  event.ReplyToID,
		})
	case models.ClientEventTyping:
		if err = d.requireMembership(ctx, event.ChatID, c.userID); err == nil {
			d.typing.SetTyping(event.ChatID, c.userID)
		}
	case models.ClientEventStopTyping:
		d.typing.ClearTyping(event.ChatID, c.userID)
	case models.ClientEventJoinChat:
		// Membership is verified server-side so a connection cannot listen
		// in on chats its user does not belong to.
		if err = d.requireMembership(ctx, event.ChatID, c.userID); err == nil {
			d.hub.JoinChat(c, event.ChatID)
		}
	case models.ClientEventLeaveChat:
		d.hub.LeaveChat(c, event.ChatID)
		d.typing.ClearTyping(event.ChatID, c.userID)
	case models.ClientEventAddReaction:
		_, err = d.reactions.Add(ctx, event.MessageID, c.userID, event.Emoji)
	case models.ClientEventRemoveReaction:
		err = d.reactions.Remove(ctx, event.MessageID, c.userID)
	case models.ClientEventEditMessage:
		_, err = d.messages.Edit(ctx, c.userID, event.MessageID, event.Content)
	case models.ClientEventDeleteMessage:
		err = d.messages.Delete(ctx, c.userID, event.MessageID)
	case models.ClientEventMessageDelivered:
		err = d.receipts.MarkDelivered(ctx, event.MessageID, c.userID)
	case models.ClientEventMessageRead:
		err = d.receipts.MarkRead(ctx, event.MessageID, c.userID)
	default:
		c.queue(models.Event{
			Type:    models.EventError,
			Payload: models.ErrorPayload{Message: "unknown event type: " + event.Type},
		})
		return
	}

	if err != nil {
		c.queue(models.Event{
			Type:    models.EventError,
			Payload: models.ErrorPayload{Message: userFacingError(err)},
		})
	}
}

func (d *Dispatcher) requireMembership(ctx context.Context, chatID, userID int64) error {
	member, err := d.chats.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !member {
		return services.ErrForbidden
	}
	return nil
}

// userFacingError hides internal detail from the live channel while keeping
// taxonomy errors readable.
func userFacingError(err error) string {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrConflict):
		return err.Error()
	default:
		return "internal error"
	}
}
