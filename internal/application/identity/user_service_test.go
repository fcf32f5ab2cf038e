package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_Create(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, auth.NewInMemoryTokenBlacklist(), time.Hour, nil)
	tenantID := uuid.New()
	ctx := context.Background()

	t.Run("rejects duplicate username", func(t *testing.T) {
		users.On("ExistsByUsername", mock.Anything, tenantID, "taken").Return(true, nil).Once()
		_, err := svc.Create(ctx, tenantID, CreateUserInput{Username: "taken", Password: "Secret123", Role: "clerk"})
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := svc.Create(ctx, tenantID, CreateUserInput{Username: "new", Password: "Secret123", Role: "boss"})
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "INVALID_ROLE", de.Code)
	})
}

func TestUserService_ChangeRole(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	actor := uuid.New()

	t.Run("keeps the last administrator", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, auth.NewInMemoryTokenBlacklist(), time.Hour, nil)
		admin := newTestUser(t, tenantID, identity.RoleAdmin)
		users.On("FindByID", mock.Anything, tenantID, admin.ID).Return(admin, nil)
		users.On("CountByRole", mock.Anything, tenantID, identity.RoleAdmin).Return(int64(1), nil)

		_, err := svc.ChangeRole(ctx, tenantID, actor, admin.ID, "clerk")
		assert.ErrorIs(t, err, ErrLastAdmin)
		assert.Equal(t, identity.RoleAdmin, admin.Role)
	})

	t.Run("demotes when another admin exists", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, auth.NewInMemoryTokenBlacklist(), time.Hour, nil)
		admin := newTestUser(t, tenantID, identity.RoleAdmin)
		users.On("FindByID", mock.Anything, tenantID, admin.ID).Return(admin, nil)
		users.On("CountByRole", mock.Anything, tenantID, identity.RoleAdmin).Return(int64(2), nil)
		users.On("Update", mock.Anything, admin).Return(nil)

		dto, err := svc.ChangeRole(ctx, tenantID, actor, admin.ID, "notary")
		require.NoError(t, err)
		assert.Equal(t, "notary", dto.Role)
	})

	t.Run("refuses own account", func(t *testing.T) {
		svc := NewUserService(new(MockUserRepository), auth.NewInMemoryTokenBlacklist(), time.Hour, nil)
		_, err := svc.ChangeRole(ctx, tenantID, actor, actor, "clerk")
		assert.ErrorIs(t, err, ErrSelfAction)
	})
}

func TestUserService_DeactivateRevokesSessions(t *testing.T) {
	ctx := context.Background()
	tenant := newTestTenant(t)
	users := new(MockUserRepository)
	blacklist := auth.NewInMemoryTokenBlacklist()
	jwtService := newJWTService()
	clerk := newTestUser(t, tenant.ID, identity.RoleClerk)

	pair, err := jwtService.GenerateTokenPair(subjectFor(tenant, clerk))
	require.NoError(t, err)
	authSvc := NewAuthService(new(MockTenantRepository), users, jwtService, blacklist, nil)
	_, err = authSvc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)

	users.On("FindByID", mock.Anything, tenant.ID, clerk.ID).Return(clerk, nil)
	users.On("Update", mock.Anything, clerk).Return(nil)
	svc := NewUserService(users, blacklist, time.Hour, nil)

	dto, err := svc.Deactivate(ctx, tenant.ID, uuid.New(), clerk.ID)
	require.NoError(t, err)
	assert.Equal(t, "deactivated", dto.Status)

	_, err = authSvc.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestUserService_List(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, auth.NewInMemoryTokenBlacklist(), time.Hour, nil)
	tenantID := uuid.New()
	u := newTestUser(t, tenantID, identity.RoleClerk)

	users.On("FindAll", mock.Anything, tenantID, mock.MatchedBy(func(f identity.UserFilter) bool {
		return f.Role != nil && *f.Role == identity.RoleClerk && f.PageSize == 20 && f.Page == 1
	})).Return([]*identity.User{u}, int64(1), nil)

	page, err := svc.List(context.Background(), tenantID, UserListFilter{Role: "clerk"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "jdewit", page.Items[0].Username)
}

func TestRoleService_List(t *testing.T) {
	users := new(MockUserRepository)
	tenantID := uuid.New()
	for i, r := range identity.AllRoles {
		users.On("CountByRole", mock.Anything, tenantID, r).Return(int64(i), nil)
	}

	roles, err := NewRoleService(users).List(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, roles, 4)
	assert.Equal(t, "admin", roles[0].Role)
	assert.Contains(t, roles[0].Permissions, identity.PermUserManage)
	assert.NotContains(t, roles[3].Permissions, identity.PermUserManage)
	assert.Equal(t, int64(3), roles[3].UserCount)
}

func TestOfficeService_Bootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("creates office and admin", func(t *testing.T) {
		tenants := new(MockTenantRepository)
		users := new(MockUserRepository)
		tenants.On("ExistsByCode", mock.Anything, "NEW-01").Return(false, nil)
		tenants.On("FindByDomain", mock.Anything, "nieuw.be").Return(nil, shared.ErrNotFound)
		tenants.On("Save", mock.Anything, mock.AnythingOfType("*identity.Tenant")).Return(nil)
		users.On("Create", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

		office, admin, err := NewOfficeService(tenants, users, nil).Bootstrap(ctx, BootstrapInput{
			Code: "new-01", Name: "Kantoor Nieuw", Domain: "https://www.nieuw.be/",
			AdminUsername: "admin", AdminPassword: "Secret123", AdminEmail: "admin@nieuw.be",
		})
		require.NoError(t, err)
		assert.Equal(t, "NEW-01", office.Code)
		assert.Equal(t, "nieuw.be", office.Domain)
		assert.Equal(t, "admin", admin.Role)
		assert.Equal(t, "active", admin.Status)
		assert.Equal(t, office.ID, admin.TenantID)
	})

	t.Run("refuses an existing code", func(t *testing.T) {
		tenants := new(MockTenantRepository)
		tenants.On("ExistsByCode", mock.Anything, "OLD").Return(true, nil)
		_, _, err := NewOfficeService(tenants, new(MockUserRepository), nil).Bootstrap(ctx, BootstrapInput{Code: "OLD", Name: "x"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestOfficeService_UpdateRejectsTakenDomain(t *testing.T) {
	tenants := new(MockTenantRepository)
	tenant := newTestTenant(t)
	other := newTestTenant(t)
	tenants.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	tenants.On("FindByDomain", mock.Anything, "ander.be").Return(other, nil)

	_, err := NewOfficeService(tenants, new(MockUserRepository), nil).Update(context.Background(), tenant.ID, UpdateOfficeInput{
		Name: "Notariskantoor Peeters", Domain: "ander.be", PaymentTermDays: 30,
	})
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "DOMAIN_TAKEN", de.Code)
}
