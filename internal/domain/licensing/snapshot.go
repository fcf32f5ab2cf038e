package licensing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
)

// Snapshot is the resolved licensing state of one office, as cached
// between requests.
type Snapshot struct {
	TenantID   uuid.UUID                   `json:"tenant_id"`
	Status     Status                      `json:"status"`
	Edition    string                      `json:"edition,omitempty"`
	ValidUntil *time.Time                  `json:"valid_until,omitempty"`
	Features   map[identity.Role][]Feature `json:"features"`
	ResolvedAt time.Time                   `json:"resolved_at"`
}

// NewSnapshot resolves the feature sets of every role.
func NewSnapshot(tenantID uuid.UUID, l *License, flags []FeatureFlag, now time.Time) *Snapshot {
	s := &Snapshot{TenantID: tenantID, Status: StatusInvalid, ResolvedAt: now}
	if l != nil {
		s.Status = l.EffectiveStatus(now)
		s.Edition = l.Edition
		s.ValidUntil = l.ValidUntil
	}
	s.Features = ResolveAll(l, flags, now)
	return s
}

// For returns the features of a role. A snapshot whose license expired
// since it was cached yields nothing.
func (s *Snapshot) For(role identity.Role, now time.Time) []Feature {
	if s.Status != StatusActive {
		return []Feature{}
	}
	if s.ValidUntil != nil && !now.Before(*s.ValidUntil) {
		return []Feature{}
	}
	if fs, ok := s.Features[role]; ok && fs != nil {
		return fs
	}
	return []Feature{}
}

// FeatureCache stores snapshots per office. Get returns nil, nil on a miss.
type FeatureCache interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*Snapshot, error)
	Set(ctx context.Context, s *Snapshot, ttl time.Duration) error
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}
