package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/middleware"
	"messenger-service/internal/services"
)

// ReactionHandler manages message reaction endpoints.
type ReactionHandler struct {
	reactions *services.ReactionService
}

// NewReactionHandler builds a ReactionHandler.
func NewReactionHandler(reactions *services.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactions: reactions}
}

// AddReaction sets the caller's reaction on a message, replacing any prior one.
func (h *ReactionHandler) AddReaction(c *gin.Context) {
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	reaction, err := h.reactions.Add(c.Request.Context(), messageID, userID, req.Emoji)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reaction": reaction})
}

// RemoveReaction clears the caller's reaction. Removing a reaction that is
// not there succeeds quietly.
func (h *ReactionHandler) RemoveReaction(c *gin.Context) {
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	if err := h.reactions.Remove(c.Request.Context(), messageID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
