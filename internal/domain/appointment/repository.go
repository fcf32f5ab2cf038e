package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
)

// Filter narrows agenda queries.
type Filter struct {
	shared.Filter
	From      *time.Time
	To        *time.Time
	NotaryID  *uuid.UUID
	DossierID *uuid.UUID
	Status    *Status
}

// Repository persists appointments. Create and Update return ErrOverlap when
// an active appointment would share time with another one of the same notary.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	Update(ctx context.Context, a *Appointment) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Appointment, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Appointment, int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
