package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
)

// Filter narrows invoice listings.
type Filter struct {
	shared.Filter
	Status    *Status
	Client    string
	DossierID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// Repository persists invoices with their lines.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	// Save updates the invoice and replaces its lines
	Save(ctx context.Context, inv *Invoice) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Invoice, int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// IssueWithNextNumber allocates the next number for the year and persists
	// the issued invoice in the same transaction.
	IssueWithNextNumber(ctx context.Context, inv *Invoice, year int, issue func(seq int) error) error
}
