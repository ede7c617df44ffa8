package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/middleware"
	"messenger-service/internal/services"
	"messenger-service/internal/telemetry"
)

// ChatHandler manages chat lifecycle and membership endpoints.
type ChatHandler struct {
	chats *services.ChatService
	audit *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chats *services.ChatService, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{chats: chats, audit: audit}
}

// StartDirect creates or returns the existing direct chat with another user.
func (h *ChatHandler) StartDirect(c *gin.Context) {
	var req struct {
		UserID int64 `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	chat, err := h.chats.StartDirect(c.Request.Context(), userID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// CreateGroup creates a group chat with the caller as admin.
func (h *ChatHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name      string  `json:"name" binding:"required"`
		MemberIDs []int64 `json:"member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	chat, err := h.chats.CreateGroup(c.Request.Context(), userID, req.Name, req.MemberIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

// ListChats returns the caller's chats with participants and unread counts.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := middleware.UserID(c)

	summaries, err := h.chats.ListChats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": summaries})
}

// Deactivate soft-deletes a chat.
func (h *ChatHandler) Deactivate(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	if err := h.chats.Deactivate(c.Request.Context(), userID, chatID); err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), userID, requestIDFromContext(c), telemetry.AuditPayload{
		Action: "chat_deactivated",
		ChatID: chatID,
	})
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

// AddParticipant adds a user to a group chat.
func (h *ChatHandler) AddParticipant(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	var req struct {
		UserID int64 `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actorID := middleware.UserID(c)
	if err := h.chats.AddParticipant(c.Request.Context(), actorID, chatID, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "added"})
}

// RemoveParticipant removes a user from a group chat. Members may remove
// themselves; removing others requires admin.
func (h *ChatHandler) RemoveParticipant(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	actorID := middleware.UserID(c)
	if err := h.chats.RemoveParticipant(c.Request.Context(), actorID, chatID, targetID); err != nil {
		respondError(c, err)
		return
	}

	if actorID != targetID {
		h.audit.Emit(c.Request.Context(), actorID, requestIDFromContext(c), telemetry.AuditPayload{
			Action:   "participant_removed",
			ChatID:   chatID,
			TargetID: targetID,
		})
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
