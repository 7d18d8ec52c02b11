package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-sidebar/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		requestID := requestIDFromContext(c)
		emitter.EmitChat(c.Request.Context(), "INFO", "audit test", requestID, userIDFromContext(c), c.Query("chat_id"))
		c.JSON(http.StatusOK, gin.H{"status": "ok", "request_id": requestID})
	})
}
