package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/messaging"
	"github.com/notaris/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMessageRepository implements messaging.Repository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create stores a message
func (r *GormMessageRepository) Create(ctx context.Context, m *messaging.Message) error {
	return createScoped(ctx, r.db, models.MessageModelFromDomain(m), m)
}

// Update persists read and hidden state
func (r *GormMessageRepository) Update(ctx context.Context, m *messaging.Message) error {
	return updateScoped(ctx, r.db, models.MessageModelFromDomain(m), m.TenantID, m)
}

// FindByID finds a message by ID
func (r *GormMessageRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*messaging.Message, error) {
	var model models.MessageModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindMailbox lists the inbox or sent box of a user, hiding messages that
// side has deleted.
func (r *GormMessageRepository) FindMailbox(ctx context.Context, tenantID, userID uuid.UUID, filter messaging.Filter) ([]*messaging.Message, int64, error) {
	var msgModels []*models.MessageModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.MessageModel{}).Where("tenant_id = ?", tenantID)
	if filter.Mailbox == messaging.MailboxSent {
		query = query.Where("sender_id = ? AND sender_deleted_at IS NULL", userID)
	} else {
		query = query.Where("recipient_id = ? AND recipient_deleted_at IS NULL", userID)
		if filter.UnreadOnly {
			query = query.Where("read_at IS NULL")
		}
	}
	if filter.DossierID != nil {
		query = query.Where("dossier_id = ?", *filter.DossierID)
	}
	if filter.Search != "" {
		kw := likePattern(strings.ToLower(filter.Search))
		query = query.Where(`(LOWER(subject) LIKE ? ESCAPE '\' OR LOWER(body) LIKE ? ESCAPE '\')`, kw, kw)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, MessageSortFields, "sent_at"))
	if err := paginate(query, filter.Filter).Find(&msgModels).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*messaging.Message, len(msgModels))
	for i, m := range msgModels {
		out[i] = m.ToDomain()
	}
	return out, total, nil
}

// FindThread returns a thread oldest first. Visibility is left to the caller.
func (r *GormMessageRepository) FindThread(ctx context.Context, tenantID uuid.UUID, threadID string) ([]*messaging.Message, error) {
	var msgModels []*models.MessageModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND thread_id = ?", tenantID, threadID).
		Order("sent_at ASC").
		Find(&msgModels).Error; err != nil {
		return nil, err
	}
	out := make([]*messaging.Message, len(msgModels))
	for i, m := range msgModels {
		out[i] = m.ToDomain()
	}
	return out, nil
}

// CountUnread counts unread inbox messages
func (r *GormMessageRepository) CountUnread(ctx context.Context, tenantID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MessageModel{}).
		Where("tenant_id = ? AND recipient_id = ? AND recipient_deleted_at IS NULL AND read_at IS NULL", tenantID, userID).
		Count(&count).Error
	return count, err
}
