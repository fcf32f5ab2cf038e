package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(tenantID uuid.UUID, username string, role identity.Role) *identity.User {
	return &identity.User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Username:            username,
		Email:               username + "@office.be",
		DisplayName:         username,
		PasswordHash:        "$2a$04$hash",
		Role:                role,
		Status:              identity.UserStatusActive,
	}
}

func TestGormUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()
	officeA := uuid.New()
	officeB := uuid.New()

	alice := newTestUser(officeA, "alice", identity.RoleNotary)
	bob := newTestUser(officeA, "bob", identity.RoleClerk)
	carol := newTestUser(officeB, "carol", identity.RoleNotary)
	for _, u := range []*identity.User{alice, bob, carol} {
		require.NoError(t, repo.Create(ctx, u))
	}

	t.Run("finds by id within the office only", func(t *testing.T) {
		found, err := repo.FindByID(ctx, officeA, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", found.Username)
		assert.Equal(t, identity.RoleNotary, found.Role)

		_, err = repo.FindByID(ctx, officeB, alice.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("finds by username case-insensitively", func(t *testing.T) {
		found, err := repo.FindByUsername(ctx, officeA, "ALICE")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, found.ID)
	})

	t.Run("exists checks are office scoped", func(t *testing.T) {
		ok, err := repo.ExistsByUsername(ctx, officeA, "carol")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.ExistsByEmail(ctx, officeA, "BOB@office.be")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("lists with role filter", func(t *testing.T) {
		role := identity.RoleClerk
		filter := identity.NewUserFilter()
		filter.Role = &role
		users, total, err := repo.FindAll(ctx, officeA, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, users, 1)
		assert.Equal(t, "bob", users[0].Username)
	})

	t.Run("update persists changes", func(t *testing.T) {
		bob.DisplayName = "Bob Peeters"
		require.NoError(t, repo.Update(ctx, bob))
		found, err := repo.FindByID(ctx, officeA, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bob Peeters", found.DisplayName)
	})

	t.Run("update from another office is not found", func(t *testing.T) {
		stray := *bob
		stray.TenantID = officeB
		assert.ErrorIs(t, repo.Update(ctx, &stray), shared.ErrNotFound)
	})

	t.Run("counts active users per role", func(t *testing.T) {
		n, err := repo.CountByRole(ctx, officeA, identity.RoleNotary)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("delete is soft and hides the user", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, officeA, bob.ID))
		_, err := repo.FindByID(ctx, officeA, bob.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		var count int64
		require.NoError(t, db.Unscoped().Table("users").Where("id = ?", bob.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		assert.ErrorIs(t, repo.Delete(ctx, officeA, bob.ID), shared.ErrNotFound)
	})
}

func TestGormTenantRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTenantRepository(db)
	ctx := context.Background()

	office, err := identity.NewTenant("ANTW01", "Notariskantoor Antwerpen")
	require.NoError(t, err)
	require.NoError(t, office.SetDomain("https://Notaris-Antwerpen.be/"))
	require.NoError(t, repo.Save(ctx, office))

	t.Run("finds by code ignoring case", func(t *testing.T) {
		found, err := repo.FindByCode(ctx, "antw01")
		require.NoError(t, err)
		assert.Equal(t, office.ID, found.ID)
		assert.True(t, found.Invoice.DefaultVATRate.Equal(office.Invoice.DefaultVATRate))
	})

	t.Run("finds by normalized domain", func(t *testing.T) {
		found, err := repo.FindByDomain(ctx, "notaris-antwerpen.be")
		require.NoError(t, err)
		assert.Equal(t, office.ID, found.ID)

		_, err = repo.FindByDomain(ctx, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("save updates an existing office", func(t *testing.T) {
		require.NoError(t, office.Update("Notariskantoor Antwerpen-Zuid", "BE0123456789", "Kerkstraat 1"))
		require.NoError(t, repo.Save(ctx, office))
		found, err := repo.FindByID(ctx, office.ID)
		require.NoError(t, err)
		assert.Equal(t, "Notariskantoor Antwerpen-Zuid", found.Name)
	})

	t.Run("exists by code", func(t *testing.T) {
		ok, err := repo.ExistsByCode(ctx, "ANTW01")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = repo.ExistsByCode(ctx, "GENT01")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
