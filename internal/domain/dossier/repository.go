package dossier

import (
	"context"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
)

// Filter narrows dossier listings.
type Filter struct {
	shared.Filter
	Status   *Status
	DeedType *DeedType
	NotaryID *uuid.UUID
}

// Repository persists dossiers together with their parties.
type Repository interface {
	Create(ctx context.Context, d *Dossier) error
	// Save updates the dossier and replaces its parties
	Save(ctx context.Context, d *Dossier) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Dossier, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Dossier, int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// NextSequence returns the next reference number for the office and year
	NextSequence(ctx context.Context, tenantID uuid.UUID, year int) (int, error)
}

// DocumentRepository persists document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *Document) error
	Update(ctx context.Context, doc *Document) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)
	FindByDossier(ctx context.Context, tenantID, dossierID uuid.UUID) ([]*Document, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
