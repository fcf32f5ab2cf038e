package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles {
		got, err := ParseRole(string(r))
		assert.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := ParseRole("superuser")
	assert.Error(t, err)
}

func TestRole_Permissions(t *testing.T) {
	t.Run("admin has every permission", func(t *testing.T) {
		for _, r := range []Role{RoleNotary, RoleCandidate, RoleClerk} {
			for _, p := range r.Permissions() {
				assert.True(t, RoleAdmin.HasPermission(p), "%s missing %s", RoleAdmin, p)
			}
		}
		assert.True(t, RoleAdmin.HasPermission(PermUserManage))
		assert.True(t, RoleAdmin.HasPermission(PermOfficeUpdate))
	})

	t.Run("notary manages ledger and license but not users", func(t *testing.T) {
		assert.True(t, RoleNotary.HasPermission(PermRepertoriumVoid))
		assert.True(t, RoleNotary.HasPermission(PermLicenseManage))
		assert.False(t, RoleNotary.HasPermission(PermUserManage))
	})

	t.Run("clerk cannot invoice or write the ledger", func(t *testing.T) {
		assert.True(t, RoleClerk.HasPermission(PermDossierWrite))
		assert.True(t, RoleClerk.HasPermission(PermRepertoriumRead))
		assert.False(t, RoleClerk.HasPermission(PermRepertoriumWrite))
		assert.False(t, RoleClerk.HasPermission(PermInvoiceRead))
	})

	t.Run("candidate cannot issue invoices", func(t *testing.T) {
		assert.True(t, RoleCandidate.HasPermission(PermInvoiceWrite))
		assert.False(t, RoleCandidate.HasPermission(PermInvoiceIssue))
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		perms := RoleClerk.Permissions()
		perms[0] = "tampered"
		assert.NotContains(t, RoleClerk.Permissions(), "tampered")
	})

	assert.Empty(t, Role("ghost").Permissions())
}
