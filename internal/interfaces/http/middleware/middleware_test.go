package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/infrastructure/auth"
	"github.com/notaris/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authFunc func(ctx context.Context, token string) (*auth.Claims, error)

func (f authFunc) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	return f(ctx, token)
}

func claimsFor(role identity.Role) *auth.Claims {
	return &auth.Claims{
		TenantID:  uuid.NewString(),
		UserID:    uuid.NewString(),
		Username:  "jdewit",
		Role:      string(role),
		TokenType: auth.TokenTypeAccess,
	}
}

// staticAuth accepts exactly one token.
func staticAuth(token string, claims *auth.Claims) Authenticator {
	return authFunc(func(_ context.Context, got string) (*auth.Claims, error) {
		if got != token {
			return nil, errors.New("unexpected token " + got)
		}
		return claims, nil
	})
}

func perform(r http.Handler, method, path string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var body dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return *body.Error
}
