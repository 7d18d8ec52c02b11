package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the caller identity set by the gateway.
const UserIDHeader = "X-User-ID"

var ErrMissingIdentity = errors.New("missing user identity")

// UserIDFromRequest reads the caller id from the X-User-ID header, then from
// the user_id query parameter.
func UserIDFromRequest(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if raw == "" {
		raw = strings.TrimSpace(r.URL.Query().Get("user_id"))
	}
	if raw == "" {
		return 0, ErrMissingIdentity
	}
	userID, err := strconv.Atoi(raw)
	if err != nil || userID <= 0 {
		return 0, ErrMissingIdentity
	}
	return userID, nil
}

// IdentityMiddleware requires a caller id and stores it as "userID".
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}

		userID, err := strconv.Atoi(header)
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
