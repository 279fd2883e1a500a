package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/learnloop/learnloop-backend/internal/logger"
)

const userIDKey = "userID"

// abortWithError writes the same error envelope as handlers.RespondError and
// aborts the request. Duplicated here rather than imported to avoid an import
// cycle between middleware and handlers.
func abortWithError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"message": msg,
			"code":    code,
		},
	})
}

// Identity extracts the gateway-asserted user identity from the X-User-ID
// header. The gateway owns authentication; requests without a valid header
// never reach the services.
func Identity(log *logger.Logger) gin.HandlerFunc {
	mwLog := log.With("middleware", "Identity")
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, "missing_user", "missing X-User-ID header")
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			mwLog.Warn("Rejected request with malformed X-User-ID", "value", raw)
			abortWithError(c, http.StatusUnauthorized, "invalid_user", "invalid X-User-ID header")
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the identity set by the Identity middleware.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
