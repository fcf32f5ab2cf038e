package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
)

func permissionRouter(role identity.Role, perms ...string) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), JWTAuth(JWTConfig{Authenticator: staticAuth("t", claimsFor(role))}))
	r.GET("/x", RequirePermission(nil, perms...), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name   string
		role   identity.Role
		perms  []string
		status int
	}{
		{"admin manages users", identity.RoleAdmin, []string{identity.PermUserManage}, http.StatusOK},
		{"clerk cannot manage users", identity.RoleClerk, []string{identity.PermUserManage}, http.StatusForbidden},
		{"clerk reads the repertorium", identity.RoleClerk, []string{identity.PermRepertoriumRead}, http.StatusOK},
		{"clerk cannot void deeds", identity.RoleClerk, []string{identity.PermRepertoriumVoid}, http.StatusForbidden},
		{"candidate lacks license management", identity.RoleCandidate, []string{identity.PermLicenseManage}, http.StatusForbidden},
		{"any of several", identity.RoleClerk, []string{identity.PermLicenseManage, identity.PermDossierRead}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := perform(permissionRouter(tt.role, tt.perms...), http.MethodGet, "/x", withBearer("t"))
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Code)
			}
		})
	}
}

func TestRequirePermission_Unauthenticated(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequirePermission(nil, identity.PermDossierRead), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/x").Code)
}
