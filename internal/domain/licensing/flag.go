package licensing

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
)

// FeatureFlag is an office-level switch. It can only narrow what the
// license grants; a missing flag means enabled.
type FeatureFlag struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Feature   Feature
	Enabled   bool
	UpdatedBy *uuid.UUID
	UpdatedAt time.Time
}

// Resolve computes the features a role may use: the license's features for
// the role intersected with the enabled office flags. An unusable license
// yields nothing.
func Resolve(l *License, flags []FeatureFlag, role identity.Role, now time.Time) []Feature {
	if !l.IsUsable(now) {
		return []Feature{}
	}
	disabled := make(map[Feature]bool, len(flags))
	for _, f := range flags {
		if !f.Enabled {
			disabled[f.Feature] = true
		}
	}
	out := make([]Feature, 0)
	for _, f := range l.RoleFeatures.For(role) {
		if !disabled[f] {
			out = append(out, f)
		}
	}
	return out
}

// ResolveAll resolves features for every role.
func ResolveAll(l *License, flags []FeatureFlag, now time.Time) map[identity.Role][]Feature {
	out := make(map[identity.Role][]Feature, len(identity.AllRoles))
	for _, r := range identity.AllRoles {
		out[r] = Resolve(l, flags, r, now)
	}
	return out
}

// Has reports whether f is in features.
func Has(features []Feature, f Feature) bool {
	return slices.Contains(features, f)
}

// Repository persists the office license and its flags.
type Repository interface {
	// FindByTenant returns shared.ErrNotFound when the office has no license.
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*License, error)
	Save(ctx context.Context, l *License) error
	Delete(ctx context.Context, tenantID uuid.UUID) error
	// ListTenantIDs returns the offices holding a license, in any status.
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)
	ListFlags(ctx context.Context, tenantID uuid.UUID) ([]FeatureFlag, error)
	SaveFlag(ctx context.Context, f *FeatureFlag) error
}
