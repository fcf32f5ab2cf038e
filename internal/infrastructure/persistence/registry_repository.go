package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/registry"
	"github.com/notaris/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRegistryRepository implements registry.Repository using GORM
type GormRegistryRepository struct {
	db *gorm.DB
}

// NewGormRegistryRepository creates a new GormRegistryRepository
func NewGormRegistryRepository(db *gorm.DB) *GormRegistryRepository {
	return &GormRegistryRepository{db: db}
}

// Record numbers the entry and stores it with its klapper rows
func (r *GormRegistryRepository) Record(ctx context.Context, e *registry.RepertoriumEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := nextSequence(tx, e.TenantID, ScopeRepertorium, e.Year)
		if err != nil {
			return err
		}
		if err := e.AssignNumber(n); err != nil {
			return err
		}
		return createScoped(ctx, tx, models.RepertoriumEntryModelFromDomain(e), e)
	})
}

// Update rewrites the entry and refreshes its klapper rows
func (r *GormRegistryRepository) Update(ctx context.Context, e *registry.RepertoriumEntry) error {
	model := models.RepertoriumEntryModelFromDomain(e)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateScoped(ctx, tx, model, e.TenantID, e); err != nil {
			return err
		}
		if err := tx.Where("tenant_id = ? AND entry_id = ?", e.TenantID, e.ID).
			Delete(&models.KlapperEntryModel{}).Error; err != nil {
			return err
		}
		if len(model.Parties) == 0 {
			return nil
		}
		return tx.Create(&model.Parties).Error
	})
}

// FindByID loads an entry with its parties
func (r *GormRegistryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*registry.RepertoriumEntry, error) {
	var model models.RepertoriumEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Parties", partyOrder).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists entries, newest number first unless another order is asked
func (r *GormRegistryRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter registry.Filter) ([]*registry.RepertoriumEntry, int64, error) {
	var entryModels []*models.RepertoriumEntryModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.RepertoriumEntryModel{}).Where("tenant_id = ?", tenantID)
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}
	if filter.DeedType != "" {
		query = query.Where("deed_type = ?", filter.DeedType)
	}
	if filter.From != nil {
		query = query.Where("deed_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("deed_date < ?", *filter.To)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		kw := likePattern(strings.ToLower(filter.Search))
		query = query.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(registration_ref) LIKE ? ESCAPE '\')`, kw, kw)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.OrderBy == "" {
		query = query.Order("year DESC").Order("number DESC")
	} else {
		query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, RepertoriumSortFields, "number"))
	}
	query = query.Preload("Parties", partyOrder)
	if err := paginate(query, filter.Filter).Find(&entryModels).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*registry.RepertoriumEntry, len(entryModels))
	for i, m := range entryModels {
		out[i] = m.ToDomain()
	}
	return out, total, nil
}

// FindYear returns the whole ledger of a year in number order
func (r *GormRegistryRepository) FindYear(ctx context.Context, tenantID uuid.UUID, year int) ([]*registry.RepertoriumEntry, error) {
	var entryModels []*models.RepertoriumEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Parties", partyOrder).
		Where("tenant_id = ? AND year = ?", tenantID, year).
		Order("number ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	out := make([]*registry.RepertoriumEntry, len(entryModels))
	for i, m := range entryModels {
		out[i] = m.ToDomain()
	}
	return out, nil
}

// FindKlapper returns index rows of recorded entries. Rows come back in
// folded-name order; locale collation is applied by the caller.
func (r *GormRegistryRepository) FindKlapper(ctx context.Context, tenantID uuid.UUID, q registry.KlapperQuery) ([]registry.KlapperEntry, error) {
	var rows []models.KlapperEntryModel
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND voided = ?", tenantID, false)
	if q.Year != nil {
		query = query.Where("year = ?", *q.Year)
	}
	if letter := strings.TrimSpace(q.Letter); letter != "" {
		query = query.Where("index_letter = ?", strings.ToUpper(letter))
	}
	if prefix := registry.FoldName(q.Prefix); prefix != "" {
		query = query.Where(`sort_key LIKE ? ESCAPE '\'`, strings.TrimPrefix(likePattern(prefix), "%"))
	}
	if err := query.
		Order("sort_key ASC").Order("year ASC").Order("entry_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]registry.KlapperEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

func partyOrder(db *gorm.DB) *gorm.DB {
	return db.Order("sort_key ASC")
}
