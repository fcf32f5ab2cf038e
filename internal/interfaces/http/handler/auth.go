package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	appidentity "github.com/notaris/backend/internal/application/identity"
	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/notaris/backend/internal/interfaces/http/middleware"
)

// refreshCookiePath limits the refresh cookie to the auth endpoints.
const refreshCookiePath = "/api/v1/auth"

// AuthHandler handles session HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *appidentity.AuthService
	cookie      config.CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *appidentity.AuthService, cookie config.CookieConfig) *AuthHandler {
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &AuthHandler{authService: authService, cookie: cookie}
}

// Login godoc
// @Summary      User login
// @Tags         auth
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=LoginResponse}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), appidentity.LoginInput{
		OfficeCode: req.OfficeCode,
		Host:       c.Request.Host,
		Username:   req.Username,
		Password:   req.Password,
		IP:         c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookies(c, result.Tokens)
	h.Success(c, LoginResponse{Token: toTokenResponse(result.Tokens), User: result.User})
}

// Refresh godoc
// @Summary      Rotate the session tokens
// @Tags         auth
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := h.refreshToken(c)
	if token == "" {
		h.Unauthorized(c, "Refresh token required")
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		h.clearSessionCookies(c)
		h.HandleError(c, err)
		return
	}

	h.setSessionCookies(c, *tokens)
	h.Success(c, toTokenResponse(*tokens))
}

// Logout godoc
// @Summary      End the session and revoke both tokens
// @Tags         auth
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	err := h.authService.Logout(c.Request.Context(), appidentity.LogoutInput{
		AccessJTI:    claims.ID,
		AccessTTL:    claims.GetRemainingTTL(),
		RefreshToken: h.refreshToken(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.clearSessionCookies(c)
	h.NoContent(c)
}

// Me godoc
// @Summary      Current user with permissions
// @Tags         auth
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	user, err := h.authService.Me(c.Request.Context(), id.TenantID, id.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ChangePassword godoc
// @Summary      Change the caller's password
// @Tags         auth
// @Security     BearerAuth
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), appidentity.ChangePasswordInput{
		TenantID:    id.TenantID,
		UserID:      id.UserID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// refreshToken reads the refresh cookie, then a JSON body.
func (h *AuthHandler) refreshToken(c *gin.Context) string {
	if v, err := c.Cookie(middleware.RefreshTokenCookie); err == nil && v != "" {
		return v
	}
	if c.Request.ContentLength == 0 {
		return ""
	}
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}

func (h *AuthHandler) sameSite() http.SameSite {
	switch strings.ToLower(h.cookie.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, t appidentity.SessionTokens) {
	c.SetSameSite(h.sameSite())
	c.SetCookie(middleware.AccessTokenCookie, t.AccessToken, maxAge(t.AccessTokenExpiresAt),
		h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, t.RefreshToken, maxAge(t.RefreshTokenExpiresAt),
		refreshCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(h.sameSite())
	c.SetCookie(middleware.AccessTokenCookie, "", -1, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, refreshCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}

func maxAge(expiresAt time.Time) int {
	secs := int(time.Until(expiresAt).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}
