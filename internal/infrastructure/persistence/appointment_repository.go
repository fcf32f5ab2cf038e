package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/appointment"
	"github.com/notaris/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAppointmentRepository implements appointment.Repository using GORM
type GormAppointmentRepository struct {
	db *gorm.DB
}

// NewGormAppointmentRepository creates a new GormAppointmentRepository
func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

// Create stores an appointment. An active appointment clashing with another
// one of the same notary is refused with appointment.ErrOverlap.
func (r *GormAppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reserveSlot(ctx, tx, a); err != nil {
			return err
		}
		return createScoped(ctx, tx, models.AppointmentModelFromDomain(a), a)
	})
}

// Update rewrites an appointment, re-checking the notary's agenda like Create.
func (r *GormAppointmentRepository) Update(ctx context.Context, a *appointment.Appointment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reserveSlot(ctx, tx, a); err != nil {
			return err
		}
		return updateScoped(ctx, tx, models.AppointmentModelFromDomain(a), a.TenantID, a)
	})
}

// reserveSlot serializes bookings per notary by locking the notary's user
// row, then looks for clashes. Inactive appointments hold no slot.
func reserveSlot(ctx context.Context, tx *gorm.DB, a *appointment.Appointment) error {
	if !a.IsActive() {
		return nil
	}
	var locked []uuid.UUID
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Model(&models.UserModel{}).
		Where("tenant_id = ? AND id = ?", a.TenantID, a.NotaryID).
		Pluck("id", &locked).Error; err != nil {
		return err
	}
	clashes, err := findOverlapping(ctx, tx, a.TenantID, a.NotaryID, a.Slot(), &a.ID)
	if err != nil {
		return err
	}
	if len(clashes) > 0 {
		return appointment.ErrOverlap
	}
	return nil
}

// FindByID finds an appointment by ID
func (r *GormAppointmentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*appointment.Appointment, error) {
	var model models.AppointmentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists the agenda. From/To select appointments intersecting the window.
func (r *GormAppointmentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter appointment.Filter) ([]*appointment.Appointment, int64, error) {
	var appModels []*models.AppointmentModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AppointmentModel{}).Where("tenant_id = ?", tenantID)
	if filter.From != nil {
		query = query.Where("end_at > ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("start_at < ?", *filter.To)
	}
	if filter.NotaryID != nil {
		query = query.Where("notary_id = ?", *filter.NotaryID)
	}
	if filter.DossierID != nil {
		query = query.Where("dossier_id = ?", *filter.DossierID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		kw := likePattern(strings.ToLower(filter.Search))
		query = query.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(location) LIKE ? ESCAPE '\')`, kw, kw)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	dir := filter.OrderDir
	if filter.OrderBy == "" {
		dir = "asc"
	}
	query = query.Order(orderClause(filter.OrderBy, dir, AppointmentSortFields, "start_at"))
	if err := paginate(query, filter.Filter).Find(&appModels).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*appointment.Appointment, len(appModels))
	for i, m := range appModels {
		out[i] = m.ToDomain()
	}
	return out, total, nil
}

// FindOverlapping returns the notary's scheduled or confirmed appointments
// intersecting the half-open slot.
func (r *GormAppointmentRepository) FindOverlapping(ctx context.Context, tenantID, notaryID uuid.UUID, slot appointment.Slot, exclude *uuid.UUID) ([]*appointment.Appointment, error) {
	return findOverlapping(ctx, r.db, tenantID, notaryID, slot, exclude)
}

func findOverlapping(ctx context.Context, db *gorm.DB, tenantID, notaryID uuid.UUID, slot appointment.Slot, exclude *uuid.UUID) ([]*appointment.Appointment, error) {
	var appModels []*models.AppointmentModel
	query := db.WithContext(ctx).
		Where("tenant_id = ? AND notary_id = ?", tenantID, notaryID).
		Where("status IN ?", []appointment.Status{appointment.StatusScheduled, appointment.StatusConfirmed}).
		Where("start_at < ? AND end_at > ?", slot.End, slot.Start)
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}
	if err := query.Order("start_at ASC").Find(&appModels).Error; err != nil {
		return nil, err
	}
	out := make([]*appointment.Appointment, len(appModels))
	for i, m := range appModels {
		out[i] = m.ToDomain()
	}
	return out, nil
}

// Delete soft-deletes an appointment
func (r *GormAppointmentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, &models.AppointmentModel{}, tenantID, id)
}
