package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	appidentity "github.com/notaris/backend/internal/application/identity"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/notaris/backend/internal/interfaces/http/middleware"
	"github.com/notaris/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler(t *testing.T) {
	middleware.SetupValidator()
	app := testutil.NewApp(t)
	h := NewAuthHandler(app.Auth, config.CookieConfig{Path: "/", SameSite: "strict"})

	engine := gin.New()
	engine.POST("/auth/login", h.Login)
	engine.POST("/auth/refresh", h.Refresh)
	authed := engine.Group("", middleware.JWTAuth(middleware.JWTConfig{Authenticator: app.Auth}))
	authed.GET("/auth/me", h.Me)
	authed.PUT("/auth/password", h.ChangePassword)
	authed.POST("/auth/logout", h.Logout)

	login := func(t *testing.T, req LoginRequest, opts ...testutil.RequestOption) LoginResponse {
		t.Helper()
		rec := testutil.DoJSON(t, engine, http.MethodPost, "/auth/login", req, opts...)
		return testutil.Data[LoginResponse](t, rec, http.StatusOK)
	}

	t.Run("login by office code sets cookies", func(t *testing.T) {
		rec := testutil.DoJSON(t, engine, http.MethodPost, "/auth/login", LoginRequest{
			OfficeCode: testutil.OfficeCode, Username: testutil.AdminUsername, Password: testutil.AdminPassword,
		})
		got := testutil.Data[LoginResponse](t, rec, http.StatusOK)
		assert.Equal(t, "Bearer", got.Token.TokenType)
		assert.Equal(t, testutil.AdminUsername, got.User.Username)
		assert.NotEmpty(t, got.User.Permissions)

		var refreshCookie string
		for _, c := range rec.Header().Values("Set-Cookie") {
			if strings.HasPrefix(c, middleware.RefreshTokenCookie+"=") {
				refreshCookie = c
			}
		}
		require.NotEmpty(t, refreshCookie)
		assert.Contains(t, refreshCookie, "Path=/api/v1/auth")
		assert.Contains(t, refreshCookie, "HttpOnly")
	})

	t.Run("login by host", func(t *testing.T) {
		got := login(t, LoginRequest{Username: testutil.AdminUsername, Password: testutil.AdminPassword},
			testutil.WithHost("www.notaris-peeters.be:443"))
		assert.Equal(t, app.Office.ID, got.User.TenantID)

		rec := testutil.DoJSON(t, engine, http.MethodPost, "/auth/login",
			LoginRequest{Username: testutil.AdminUsername, Password: testutil.AdminPassword},
			testutil.WithHost("elders.be"))
		testutil.AssertError(t, rec, http.StatusUnauthorized, "OFFICE_NOT_FOUND")
	})

	t.Run("refresh rotates", func(t *testing.T) {
		first := login(t, LoginRequest{OfficeCode: testutil.OfficeCode, Username: testutil.AdminUsername, Password: testutil.AdminPassword})

		rec := testutil.DoJSON(t, engine, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: first.Token.RefreshToken})
		second := testutil.Data[TokenResponse](t, rec, http.StatusOK)
		assert.NotEqual(t, first.Token.RefreshToken, second.RefreshToken)

		rec = testutil.DoJSON(t, engine, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: first.Token.RefreshToken})
		testutil.AssertError(t, rec, http.StatusUnauthorized, "TOKEN_REVOKED")

		rec = testutil.DoJSON(t, engine, http.MethodPost, "/auth/refresh", nil,
			testutil.WithCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: second.RefreshToken}))
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = testutil.DoJSON(t, engine, http.MethodPost, "/auth/refresh", nil)
		testutil.AssertError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("change password", func(t *testing.T) {
		u := app.CreateUser(t, "wouter", identity.RoleClerk)
		session := login(t, LoginRequest{OfficeCode: testutil.OfficeCode, Username: u.Username, Password: testutil.AdminPassword})
		bearer := testutil.WithBearer(session.Token.AccessToken)

		rec := testutil.DoJSON(t, engine, http.MethodGet, "/auth/me", nil, bearer)
		me := testutil.Data[appidentity.UserDTO](t, rec, http.StatusOK)
		assert.Equal(t, u.ID, me.ID)

		rec = testutil.DoJSON(t, engine, http.MethodPut, "/auth/password",
			ChangePasswordRequest{OldPassword: "fout-wachtwoord1", NewPassword: "Nieuw-Wachtwoord7"}, bearer)
		testutil.AssertError(t, rec, http.StatusBadRequest, "INVALID_PASSWORD")

		rec = testutil.DoJSON(t, engine, http.MethodPut, "/auth/password",
			ChangePasswordRequest{OldPassword: testutil.AdminPassword, NewPassword: "kort"}, bearer)
		testutil.AssertError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

		rec = testutil.DoJSON(t, engine, http.MethodPut, "/auth/password",
			ChangePasswordRequest{OldPassword: testutil.AdminPassword, NewPassword: "Nieuw-Wachtwoord7"}, bearer)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = testutil.DoJSON(t, engine, http.MethodPost, "/auth/login",
			LoginRequest{OfficeCode: testutil.OfficeCode, Username: u.Username, Password: testutil.AdminPassword})
		testutil.AssertError(t, rec, http.StatusUnauthorized, "INVALID_CREDENTIALS")
		login(t, LoginRequest{OfficeCode: testutil.OfficeCode, Username: u.Username, Password: "Nieuw-Wachtwoord7"})
	})

	t.Run("lockout", func(t *testing.T) {
		u := app.CreateUser(t, "mallory", identity.RoleClerk)
		wrong := LoginRequest{OfficeCode: testutil.OfficeCode, Username: u.Username, Password: "Niet-Het-Juiste1"}
		for i := 1; i < identity.MaxLoginAttempts; i++ {
			rec := testutil.DoJSON(t, engine, http.MethodPost, "/auth/login", wrong)
			testutil.AssertError(t, rec, http.StatusUnauthorized, "INVALID_CREDENTIALS")
		}
		rec := testutil.DoJSON(t, engine, http.MethodPost, "/auth/login", wrong)
		testutil.AssertError(t, rec, http.StatusForbidden, "ACCOUNT_LOCKED")

		rec = testutil.DoJSON(t, engine, http.MethodPost, "/auth/login",
			LoginRequest{OfficeCode: testutil.OfficeCode, Username: u.Username, Password: testutil.AdminPassword})
		testutil.AssertError(t, rec, http.StatusForbidden, "ACCOUNT_LOCKED")
	})

	t.Run("logout revokes access token", func(t *testing.T) {
		session := login(t, LoginRequest{OfficeCode: testutil.OfficeCode, Username: testutil.AdminUsername, Password: testutil.AdminPassword})
		bearer := testutil.WithBearer(session.Token.AccessToken)

		rec := testutil.DoJSON(t, engine, http.MethodPost, "/auth/logout", RefreshTokenRequest{RefreshToken: session.Token.RefreshToken}, bearer)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = testutil.DoJSON(t, engine, http.MethodGet, "/auth/me", nil, bearer)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = testutil.DoJSON(t, engine, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: session.Token.RefreshToken})
		testutil.AssertError(t, rec, http.StatusUnauthorized, "TOKEN_REVOKED")
	})
}
