package registry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
)

// Filter narrows repertorium listings.
type Filter struct {
	shared.Filter
	Year     *int
	DeedType string
	From     *time.Time
	To       *time.Time
	Status   *EntryStatus
}

// KlapperQuery narrows the party index.
type KlapperQuery struct {
	Year   *int
	Letter string
	Prefix string
}

// Repository persists the repertorium and its klapper rows.
type Repository interface {
	// Record allocates the next number for the entry's year, assigns it and
	// stores the entry with its parties in one transaction.
	Record(ctx context.Context, e *RepertoriumEntry) error
	Update(ctx context.Context, e *RepertoriumEntry) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*RepertoriumEntry, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*RepertoriumEntry, int64, error)
	// FindYear returns every entry of a year in number order
	FindYear(ctx context.Context, tenantID uuid.UUID, year int) ([]*RepertoriumEntry, error)
	// FindKlapper returns klapper rows joined with their entry number and deed data
	FindKlapper(ctx context.Context, tenantID uuid.UUID, q KlapperQuery) ([]KlapperEntry, error)
}
