package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/dossier"
	"github.com/notaris/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDossierRepository implements dossier.Repository using GORM
type GormDossierRepository struct {
	db *gorm.DB
}

// NewGormDossierRepository creates a new GormDossierRepository
func NewGormDossierRepository(db *gorm.DB) *GormDossierRepository {
	return &GormDossierRepository{db: db}
}

// Create inserts a dossier with its parties
func (r *GormDossierRepository) Create(ctx context.Context, d *dossier.Dossier) error {
	return createScoped(ctx, r.db, models.DossierModelFromDomain(d), d)
}

// Save updates the dossier and replaces its parties
func (r *GormDossierRepository) Save(ctx context.Context, d *dossier.Dossier) error {
	model := models.DossierModelFromDomain(d)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateScoped(ctx, tx, model, d.TenantID, d); err != nil {
			return err
		}
		if err := tx.Where("tenant_id = ? AND dossier_id = ?", d.TenantID, d.ID).
			Delete(&models.PartyModel{}).Error; err != nil {
			return err
		}
		if len(model.Parties) == 0 {
			return nil
		}
		return tx.Create(&model.Parties).Error
	})
}

// FindByID loads a dossier with its parties
func (r *GormDossierRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*dossier.Dossier, error) {
	var model models.DossierModel
	if err := r.db.WithContext(ctx).
		Preload("Parties", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists dossiers; search matches reference, title and party names
func (r *GormDossierRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter dossier.Filter) ([]*dossier.Dossier, int64, error) {
	var dossierModels []*models.DossierModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.DossierModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DeedType != nil {
		query = query.Where("deed_type = ?", *filter.DeedType)
	}
	if filter.NotaryID != nil {
		query = query.Where("notary_id = ?", *filter.NotaryID)
	}
	if filter.Search != "" {
		kw := likePattern(strings.ToLower(filter.Search))
		parties := r.db.Model(&models.PartyModel{}).Select("dossier_id").
			Where(`tenant_id = ? AND (LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(company_name) LIKE ? ESCAPE '\')`, tenantID, kw, kw, kw)
		query = query.Where(`(LOWER(reference) LIKE ? ESCAPE '\' OR LOWER(title) LIKE ? ESCAPE '\' OR id IN (?))`, kw, kw, parties)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.
		Preload("Parties", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order(orderClause(filter.OrderBy, filter.OrderDir, DossierSortFields, "created_at"))
	if err := paginate(query, filter.Filter).Find(&dossierModels).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*dossier.Dossier, len(dossierModels))
	for i, m := range dossierModels {
		out[i] = m.ToDomain()
	}
	return out, total, nil
}

// Delete soft-deletes a dossier. Parties stay attached to the archived row.
func (r *GormDossierRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, &models.DossierModel{}, tenantID, id)
}

// NextSequence allocates the next dossier number of the year
func (r *GormDossierRepository) NextSequence(ctx context.Context, tenantID uuid.UUID, year int) (int, error) {
	var seq int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		seq, err = nextSequence(tx, tenantID, ScopeDossier, year)
		return err
	})
	return seq, err
}

// GormDocumentRepository implements dossier.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Create stores document metadata
func (r *GormDocumentRepository) Create(ctx context.Context, doc *dossier.Document) error {
	return createScoped(ctx, r.db, models.DocumentModelFromDomain(doc), doc)
}

// Update rewrites document metadata
func (r *GormDocumentRepository) Update(ctx context.Context, doc *dossier.Document) error {
	return updateScoped(ctx, r.db, models.DocumentModelFromDomain(doc), doc.TenantID, doc)
}

// FindByID finds a document by ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*dossier.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByDossier lists a dossier's documents, newest first
func (r *GormDocumentRepository) FindByDossier(ctx context.Context, tenantID, dossierID uuid.UUID) ([]*dossier.Document, error) {
	var docModels []*models.DocumentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND dossier_id = ?", tenantID, dossierID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Find(&docModels).Error; err != nil {
		return nil, err
	}
	out := make([]*dossier.Document, len(docModels))
	for i, m := range docModels {
		out[i] = m.ToDomain()
	}
	return out, nil
}

// Delete soft-deletes document metadata; the stored object is kept
func (r *GormDocumentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, &models.DocumentModel{}, tenantID, id)
}
