package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/invoicing"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements invoicing.Repository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create inserts an invoice with its lines
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *invoicing.Invoice) error {
	return createScoped(ctx, r.db, models.InvoiceModelFromDomain(inv), inv)
}

// Save updates the invoice and replaces its lines
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *invoicing.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveInvoice(ctx, tx, inv)
	})
}

func saveInvoice(ctx context.Context, tx *gorm.DB, inv *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	if err := updateScoped(ctx, tx, model, inv.TenantID, inv); err != nil {
		return err
	}
	if err := tx.Where("tenant_id = ? AND invoice_id = ?", inv.TenantID, inv.ID).
		Delete(&models.InvoiceLineModel{}).Error; err != nil {
		return err
	}
	if len(model.Lines) == 0 {
		return nil
	}
	return tx.Create(&model.Lines).Error
}

// FindByID loads an invoice with its lines
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists invoices. From/To filter on issue date.
func (r *GormInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter invoicing.Filter) ([]*invoicing.Invoice, int64, error) {
	var invModels []*models.InvoiceModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DossierID != nil {
		query = query.Where("dossier_id = ?", *filter.DossierID)
	}
	if c := strings.TrimSpace(filter.Client); c != "" {
		query = query.Where(`LOWER(client_name) LIKE ? ESCAPE '\'`, likePattern(strings.ToLower(c)))
	}
	if filter.From != nil {
		query = query.Where("issue_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("issue_date < ?", *filter.To)
	}
	if filter.Search != "" {
		kw := likePattern(strings.ToLower(filter.Search))
		query = query.Where(`(LOWER(number) LIKE ? ESCAPE '\' OR LOWER(client_name) LIKE ? ESCAPE '\')`, kw, kw)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order(orderClause(filter.OrderBy, filter.OrderDir, InvoiceSortFields, "created_at"))
	if err := paginate(query, filter.Filter).Find(&invModels).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*invoicing.Invoice, len(invModels))
	for i, m := range invModels {
		out[i] = m.ToDomain()
	}
	return out, total, nil
}

// Delete soft-deletes a draft invoice. Issued invoices keep their number.
func (r *GormInvoiceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, id, invoicing.StatusDraft).
		Delete(&models.InvoiceModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IssueWithNextNumber allocates the year's next number, lets issue apply it
// to the invoice and saves the result in one transaction. A failing issue
// rolls the counter back.
func (r *GormInvoiceRepository) IssueWithNextNumber(ctx context.Context, inv *invoicing.Invoice, year int, issue func(seq int) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.InvoiceModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status", "version").
			Where("tenant_id = ? AND id = ?", inv.TenantID, inv.ID).
			First(&current).Error; err != nil {
			return translateError(err)
		}
		if current.Status != invoicing.StatusDraft || current.Version != inv.PersistedVersion() {
			return shared.ErrConcurrencyConflict
		}

		seq, err := nextSequence(tx, inv.TenantID, ScopeInvoice, year)
		if err != nil {
			return err
		}
		if err := issue(seq); err != nil {
			return err
		}
		return saveInvoice(ctx, tx, inv)
	})
}
