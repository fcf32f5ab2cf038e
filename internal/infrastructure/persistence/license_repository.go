package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/licensing"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLicenseRepository implements licensing.Repository using GORM
type GormLicenseRepository struct {
	db *gorm.DB
}

// NewGormLicenseRepository creates a new GormLicenseRepository
func NewGormLicenseRepository(db *gorm.DB) *GormLicenseRepository {
	return &GormLicenseRepository{db: db}
}

// FindByTenant returns the office's license
func (r *GormLicenseRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*licensing.License, error) {
	var model models.LicenseModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save upserts the office's single license row. Re-activating after a
// deactivation revives the soft-deleted row.
func (r *GormLicenseRepository) Save(ctx context.Context, l *licensing.License) error {
	model := models.LicenseModelFromDomain(l)
	return translateError(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"key", "domain", "edition", "status", "valid_until", "activated_at",
				"last_verified_at", "role_features", "version", "updated_at", "deleted_at",
			}),
		}).
		Create(model).Error)
}

// Delete soft-deletes the office's license
func (r *GormLicenseRepository) Delete(ctx context.Context, tenantID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Delete(&models.LicenseModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListTenantIDs returns the offices that hold a license
func (r *GormLicenseRepository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.LicenseModel{}).
		Order("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}

// ListFlags returns the office's feature switches ordered by feature
func (r *GormLicenseRepository) ListFlags(ctx context.Context, tenantID uuid.UUID) ([]licensing.FeatureFlag, error) {
	var rows []models.FeatureFlagModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("feature ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]licensing.FeatureFlag, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// SaveFlag upserts a switch keyed by (office, feature)
func (r *GormLicenseRepository) SaveFlag(ctx context.Context, f *licensing.FeatureFlag) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	model := models.FeatureFlagModelFromDomain(*f)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "feature"}},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_by", "updated_at"}),
		}).Create(model).Error; err != nil {
			return err
		}
		var stored models.FeatureFlagModel
		if err := tx.Where("tenant_id = ? AND feature = ?", f.TenantID, f.Feature).First(&stored).Error; err != nil {
			return translateError(err)
		}
		f.ID = stored.ID
		return nil
	})
}
