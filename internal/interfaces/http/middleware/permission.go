package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notaris/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RequirePermission lets the request through when the caller's role
// grants any of the listed permissions. The role policy is read at
// request time so a policy change applies to live sessions.
func RequirePermission(logger *zap.Logger, permissions ...string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		for _, p := range permissions {
			if id.Role.HasPermission(p) {
				c.Next()
				return
			}
		}
		logger.Info("permission denied",
			zap.String("user_id", id.UserID.String()),
			zap.String("role", string(id.Role)),
			zap.Strings("required_any", permissions),
			zap.String("path", c.FullPath()),
		)
		abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "You do not have permission to perform this action")
	}
}
