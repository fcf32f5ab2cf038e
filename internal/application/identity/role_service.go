package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
)

// RoleService exposes the static role policy and per-role user counts.
type RoleService struct {
	userRepo identity.UserRepository
}

// NewRoleService creates a new role service
func NewRoleService(userRepo identity.UserRepository) *RoleService {
	return &RoleService{userRepo: userRepo}
}

// RoleSummary is a role with the number of office users holding it.
type RoleSummary struct {
	RoleDTO
	UserCount int64 `json:"user_count"`
}

// List returns every role in descending order of privilege.
func (s *RoleService) List(ctx context.Context, tenantID uuid.UUID) ([]RoleSummary, error) {
	out := make([]RoleSummary, 0, len(identity.AllRoles))
	for _, r := range identity.AllRoles {
		n, err := s.userRepo.CountByRole(ctx, tenantID, r)
		if err != nil {
			return nil, err
		}
		out = append(out, RoleSummary{
			RoleDTO:   RoleDTO{Role: string(r), Permissions: r.Permissions()},
			UserCount: n,
		})
	}
	return out, nil
}
