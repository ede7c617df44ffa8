package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/middleware"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/ws"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, auth gin.HandlerFunc, emitter *telemetry.AuditEmitter, hub *ws.Hub, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", auth, func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), middleware.UserID(c), requestIDFromContext(c), telemetry.AuditPayload{
			Action: "audit_test",
		})
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/connections", auth, func(c *gin.Context) {
		userID := middleware.UserID(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":     userID,
			"connections": hub.ConnectionCount(userID),
		})
	})
}
