package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	// Delete soft-deletes a user
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*User, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter UserFilter) ([]*User, int64, error)
	ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error)
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
	CountByRole(ctx context.Context, tenantID uuid.UUID, role Role) (int64, error)
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	shared.Filter
	Status *UserStatus
	Role   *Role
}

// NewUserFilter creates a new UserFilter with default values
func NewUserFilter() UserFilter {
	return UserFilter{Filter: shared.DefaultFilter()}
}
