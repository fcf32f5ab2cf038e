package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/auth"
	"github.com/notaris/backend/internal/infrastructure/logger"
	"github.com/notaris/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys set for authenticated requests.
const (
	ClaimsKey   = "claims"
	TenantIDKey = "tenant_id"
	UserIDKey   = "user_id"
	RoleKey     = "role"

	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	authHeaderKey = "Authorization"
	bearerPrefix  = "Bearer "
)

// Authenticator validates an access token and checks revocation.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
}

// JWTConfig configures JWTAuth.
type JWTConfig struct {
	Authenticator Authenticator
	// SkipPaths are full request paths served without a session.
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultSkipPaths are the routes reachable without a session.
func DefaultSkipPaths() []string {
	return []string{
		"/health",
		"/api/v1/health",
		"/api/v1/auth/login",
		"/api/v1/auth/refresh",
	}
}

// ExtractAccessToken reads the bearer header, then the access_token cookie.
func ExtractAccessToken(c *gin.Context) string {
	if h := c.GetHeader(authHeaderKey); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	if v, err := c.Cookie(AccessTokenCookie); err == nil {
		return v
	}
	return ""
}

// JWTAuth authenticates every request not listed in SkipPaths and stores
// the claims, office, user and role in the gin and request contexts.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		token := ExtractAccessToken(c)
		if token == "" {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		claims, err := cfg.Authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			var de *shared.DomainError
			if errors.As(err, &de) {
				log.Debug("authentication rejected",
					zap.String("code", de.Code),
					zap.String("path", c.Request.URL.Path))
				abortWithError(c, http.StatusUnauthorized, de.Code, de.Message)
				return
			}
			log.Error("authentication failed", zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(TenantIDKey, claims.TenantID)
		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)

		ctx := logger.WithIdentity(c.Request.Context(), claims.TenantID, claims.UserID, claims.Role)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetClaims returns the claims of the authenticated caller, or nil.
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// Identity is the authenticated caller.
type Identity struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     identity.Role
	Username string
}

// GetIdentity parses the caller's ids from the claims.
func GetIdentity(c *gin.Context) (Identity, bool) {
	claims := GetClaims(c)
	if claims == nil {
		return Identity{}, false
	}
	tenantID, err := claims.GetTenantUUID()
	if err != nil {
		return Identity{}, false
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return Identity{}, false
	}
	return Identity{
		TenantID: tenantID,
		UserID:   userID,
		Role:     identity.Role(claims.Role),
		Username: claims.Username,
	}, true
}
