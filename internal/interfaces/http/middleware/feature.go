package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/licensing"
	"github.com/notaris/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// FeatureChecker resolves whether the office license grants a feature to a role.
type FeatureChecker interface {
	Enabled(ctx context.Context, tenantID uuid.UUID, role identity.Role, feature licensing.Feature) (bool, error)
}

// RequireFeature answers 403 FEATURE_DISABLED when the caller's role has
// no access to feature under the office license and flags.
func RequireFeature(checker FeatureChecker, logger *zap.Logger, feature licensing.Feature) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		enabled, err := checker.Enabled(c.Request.Context(), id.TenantID, id.Role, feature)
		if err != nil {
			logger.Error("feature check failed",
				zap.String("tenant_id", id.TenantID.String()),
				zap.String("feature", string(feature)),
				zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
			return
		}
		if !enabled {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeFeatureOff,
				"The "+string(feature)+" feature is not enabled for your role")
			return
		}
		c.Next()
	}
}
