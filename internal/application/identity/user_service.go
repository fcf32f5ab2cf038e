package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var (
	ErrLastAdmin   = shared.NewDomainError("LAST_ADMIN", "An office needs at least one active administrator")
	ErrSelfAction  = shared.NewDomainError("SELF_ACTION", "You cannot perform this action on your own account")
	ErrUserExists  = shared.NewDomainError("ALREADY_EXISTS", "Username is already taken")
	ErrEmailExists = shared.NewDomainError("ALREADY_EXISTS", "E-mail address is already in use")
)

// UserService handles user administration inside an office.
type UserService struct {
	userRepo  identity.UserRepository
	blacklist auth.TokenBlacklist
	// sessionTTL bounds how long a user-wide revocation must be remembered
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewUserService creates a new user service. Deactivated and deleted users
// have their sessions revoked through blacklist.
func NewUserService(userRepo identity.UserRepository, blacklist auth.TokenBlacklist, sessionTTL time.Duration, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{userRepo: userRepo, blacklist: blacklist, sessionTTL: sessionTTL, logger: logger}
}

// Create adds an active user to the office.
func (s *UserService) Create(ctx context.Context, tenantID uuid.UUID, input CreateUserInput) (*UserDTO, error) {
	role, err := identity.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}
	exists, err := s.userRepo.ExistsByUsername(ctx, tenantID, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}
	if input.Email != "" {
		exists, err := s.userRepo.ExistsByEmail(ctx, tenantID, input.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrEmailExists
		}
	}

	user, err := identity.NewActiveUser(tenantID, input.Username, input.Password, role)
	if err != nil {
		return nil, err
	}
	if err := user.SetEmail(input.Email); err != nil {
		return nil, err
	}
	if err := user.SetDisplayName(input.DisplayName); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)))
	dto := ToUserDTO(user)
	return &dto, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, tenantID, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	dto.Permissions = user.Role.Permissions()
	return &dto, nil
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, f UserListFilter) (shared.Paginated[UserDTO], error) {
	filter := identity.NewUserFilter()
	filter.Search = f.Search
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	filter.OrderBy = "username"
	filter.OrderDir = "asc"
	if f.Role != "" {
		role, err := identity.ParseRole(f.Role)
		if err != nil {
			return shared.Paginated[UserDTO]{}, err
		}
		filter.Role = &role
	}
	if f.Status != "" {
		st := identity.UserStatus(f.Status)
		filter.Status = &st
	}
	filter.Filter = filter.Filter.Normalize()

	users, total, err := s.userRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[UserDTO]{}, err
	}
	items := make([]UserDTO, 0, len(users))
	for _, u := range users {
		items = append(items, ToUserDTO(u))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Update changes a user's profile fields.
func (s *UserService) Update(ctx context.Context, tenantID, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if input.Email != nil && *input.Email != user.Email {
		if *input.Email != "" {
			exists, err := s.userRepo.ExistsByEmail(ctx, tenantID, *input.Email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrEmailExists
			}
		}
		if err := user.SetEmail(*input.Email); err != nil {
			return nil, err
		}
	}
	if input.DisplayName != nil {
		if err := user.SetDisplayName(*input.DisplayName); err != nil {
			return nil, err
		}
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// ChangeRole assigns a new role. The last administrator cannot be demoted.
func (s *UserService) ChangeRole(ctx context.Context, tenantID, actorID, id uuid.UUID, roleName string) (*UserDTO, error) {
	if actorID == id {
		return nil, ErrSelfAction
	}
	role, err := identity.ParseRole(roleName)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if user.Role == identity.RoleAdmin && role != identity.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, tenantID); err != nil {
			return nil, err
		}
	}
	if err := user.ChangeRole(role); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User role changed",
		zap.String("user_id", id.String()), zap.String("role", string(role)))
	dto := ToUserDTO(user)
	return &dto, nil
}

// Activate re-enables a pending, locked or deactivated user.
func (s *UserService) Activate(ctx context.Context, tenantID, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := user.Activate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// Deactivate disables a user and ends their sessions.
func (s *UserService) Deactivate(ctx context.Context, tenantID, actorID, id uuid.UUID) (*UserDTO, error) {
	if actorID == id {
		return nil, ErrSelfAction
	}
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if user.Role == identity.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, tenantID); err != nil {
			return nil, err
		}
	}
	if err := user.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.revokeSessions(ctx, id)
	dto := ToUserDTO(user)
	return &dto, nil
}

// Delete soft-deletes a user and ends their sessions.
func (s *UserService) Delete(ctx context.Context, tenantID, actorID, id uuid.UUID) error {
	if actorID == id {
		return ErrSelfAction
	}
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if user.Role == identity.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, tenantID); err != nil {
			return err
		}
	}
	if err := s.userRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.revokeSessions(ctx, id)
	s.logger.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}

func (s *UserService) ensureAnotherAdmin(ctx context.Context, tenantID uuid.UUID) error {
	n, err := s.userRepo.CountByRole(ctx, tenantID, identity.RoleAdmin)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if err := s.blacklist.RevokeUser(ctx, userID.String(), s.sessionTTL); err != nil {
		s.logger.Error("Failed to revoke user sessions", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
