package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/middleware"
	"messenger-service/internal/services"
)

// ReceiptHandler manages read receipt and unread count endpoints.
type ReceiptHandler struct {
	receipts *services.ReceiptService
}

// NewReceiptHandler builds a ReceiptHandler.
func NewReceiptHandler(receipts *services.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// MarkRead marks a single message read by the caller.
func (h *ReceiptHandler) MarkRead(c *gin.Context) {
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	if err := h.receipts.MarkRead(c.Request.Context(), messageID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

// MarkChatRead marks every unread message in a chat read.
func (h *ReceiptHandler) MarkChatRead(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	marked, err := h.receipts.MarkAllRead(c.Request.Context(), chatID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// UnreadCounts returns per-chat unread counts for the caller.
func (h *ReceiptHandler) UnreadCounts(c *gin.Context) {
	userID := middleware.UserID(c)

	counts, err := h.receipts.UnreadCounts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": counts})
}

// UnreadCount returns the unread count for one chat.
func (h *ReceiptHandler) UnreadCount(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	count, err := h.receipts.UnreadCount(c.Request.Context(), chatID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat_id": chatID, "unread": count})
}
