package identity

import (
	"context"

	"github.com/google/uuid"
)

// TenantRepository defines the interface for office persistence
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByCode(ctx context.Context, code string) (*Tenant, error)
	FindByDomain(ctx context.Context, domain string) (*Tenant, error)
	// Save creates or updates an office
	Save(ctx context.Context, tenant *Tenant) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
