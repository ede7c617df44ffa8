package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/middleware"
	"messenger-service/internal/services"
	"messenger-service/internal/telemetry"
)

// MessageHandler manages the message endpoints.
type MessageHandler struct {
	messages *services.MessageService
	audit    *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages *services.MessageService, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{messages: messages, audit: audit}
}

// PostMessage sends a message into a chat.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	var payload services.SendPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	msg, err := h.messages.Send(c.Request.Context(), userID, chatID, payload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// GetMessages returns a page of chat history, oldest first within the page.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPageSize)))

	userID := middleware.UserID(c)
	msgs, hasMore, err := h.messages.History(c.Request.Context(), userID, chatID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs, "has_more": hasMore})
}

// SearchMessages searches message content within a chat.
func (h *MessageHandler) SearchMessages(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	userID := middleware.UserID(c)
	msgs, err := h.messages.Search(c.Request.Context(), userID, chatID, query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// EditMessage replaces the text content of the caller's own message.
func (h *MessageHandler) EditMessage(c *gin.Context) {
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	msg, err := h.messages.Edit(c.Request.Context(), userID, messageID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// DeleteMessage soft-deletes a message for everyone.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	if err := h.messages.Delete(c.Request.Context(), userID, messageID); err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), userID, requestIDFromContext(c), telemetry.AuditPayload{
		Action:    "message_deleted",
		MessageID: messageID,
	})
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
