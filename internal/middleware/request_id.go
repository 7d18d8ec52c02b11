package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-sidebar/internal/observability"
)

const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware makes sure every request has an id, echoes it back and
// attaches it to the request context for event headers.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, requestID)
		}
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(observability.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}
