package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/assistant"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormChatSessionRepository implements assistant.SessionRepository using GORM
type GormChatSessionRepository struct {
	db *gorm.DB
}

// NewGormChatSessionRepository creates a new GormChatSessionRepository
func NewGormChatSessionRepository(db *gorm.DB) *GormChatSessionRepository {
	return &GormChatSessionRepository{db: db}
}

// Create stores a new session
func (r *GormChatSessionRepository) Create(ctx context.Context, s *assistant.ChatSession) error {
	return createScoped(ctx, r.db, models.ChatSessionModelFromDomain(s), s)
}

// Update writes title and usage totals
func (r *GormChatSessionRepository) Update(ctx context.Context, s *assistant.ChatSession) error {
	return updateScoped(ctx, r.db, models.ChatSessionModelFromDomain(s), s.TenantID, s)
}

// FindByID loads a session, optionally with its messages in order
func (r *GormChatSessionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID, withMessages bool) (*assistant.ChatSession, error) {
	var model models.ChatSessionModel
	query := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id)
	if withMessages {
		query = query.Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
	}
	if err := query.First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByUser lists a user's sessions, most recently active first
func (r *GormChatSessionRepository) FindByUser(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]*assistant.ChatSession, int64, error) {
	var sessionModels []*models.ChatSessionModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ChatSessionModel{}).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID)
	if filter.Search != "" {
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\'`, likePattern(strings.ToLower(filter.Search)))
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, ChatSessionSortFields, "updated_at"))
	if err := paginate(query, filter).Find(&sessionModels).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*assistant.ChatSession, len(sessionModels))
	for i, m := range sessionModels {
		out[i] = m.ToDomain()
	}
	return out, total, nil
}

// Delete soft-deletes a session; its messages remain for usage reporting
func (r *GormChatSessionRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, &models.ChatSessionModel{}, tenantID, id)
}

// RecordExchange writes the session's title and totals and inserts msgs in
// the same transaction.
func (r *GormChatSessionRepository) RecordExchange(ctx context.Context, s *assistant.ChatSession, msgs ...assistant.ChatMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateScoped(ctx, tx, models.ChatSessionModelFromDomain(s), s.TenantID, s); err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}
		rows := make([]models.ChatMessageModel, len(msgs))
		for i, m := range msgs {
			rows[i] = models.ChatMessageModelFromDomain(m)
		}
		return translateError(tx.Create(&rows).Error)
	})
}

type usageScan struct {
	UserID           uuid.UUID
	Sessions         int64
	PromptTokens     int64
	CompletionTokens int64
	Cost             decimal.Decimal
}

// Usage sums tokens and cost per user over the messages created in
// [from, to). Messages of deleted sessions still count.
func (r *GormChatSessionRepository) Usage(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]assistant.UsageRow, error) {
	var scans []usageScan
	if err := r.db.WithContext(ctx).
		Table("chat_messages AS m").
		Joins("JOIN chat_sessions AS s ON s.id = m.session_id AND s.tenant_id = m.tenant_id").
		Select("s.user_id AS user_id, COUNT(DISTINCT m.session_id) AS sessions, "+
			"COALESCE(SUM(m.prompt_tokens), 0) AS prompt_tokens, "+
			"COALESCE(SUM(m.completion_tokens), 0) AS completion_tokens, "+
			"COALESCE(SUM(m.cost), 0) AS cost").
		Where("m.tenant_id = ? AND m.created_at >= ? AND m.created_at < ?", tenantID, from, to).
		Group("s.user_id").
		Order("cost DESC").
		Scan(&scans).Error; err != nil {
		return nil, err
	}
	out := make([]assistant.UsageRow, len(scans))
	for i, s := range scans {
		out[i] = assistant.UsageRow(s)
	}
	return out, nil
}

// GormKnowledgeRepository implements assistant.KnowledgeRepository using GORM
type GormKnowledgeRepository struct {
	db *gorm.DB
}

// NewGormKnowledgeRepository creates a new GormKnowledgeRepository
func NewGormKnowledgeRepository(db *gorm.DB) *GormKnowledgeRepository {
	return &GormKnowledgeRepository{db: db}
}

// ReplaceSource swaps all chunks of a source for the given ones
func (r *GormKnowledgeRepository) ReplaceSource(ctx context.Context, tenantID uuid.UUID, kind assistant.SourceKind, sourceID uuid.UUID, chunks []*assistant.KnowledgeChunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteSource(tx, tenantID, kind, sourceID); err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		rows := make([]*models.KnowledgeChunkModel, len(chunks))
		for i, c := range chunks {
			rows[i] = models.KnowledgeChunkModelFromDomain(c)
		}
		return tx.CreateInBatches(rows, 200).Error
	})
}

// Candidates returns the chunks retrieval ranks over. With a dossier, the
// dossier's chunks come first, then office-wide notes.
func (r *GormKnowledgeRepository) Candidates(ctx context.Context, tenantID uuid.UUID, dossierID *uuid.UUID, limit int) ([]*assistant.KnowledgeChunk, error) {
	var rows []*models.KnowledgeChunkModel
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if dossierID != nil {
		query = query.Where("(dossier_id = ? OR dossier_id IS NULL)", *dossierID).
			Order("CASE WHEN dossier_id IS NULL THEN 1 ELSE 0 END")
	}
	query = query.Order("created_at DESC").Order("position ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*assistant.KnowledgeChunk, len(rows))
	for i, m := range rows {
		out[i] = m.ToDomain()
	}
	return out, nil
}

// DeleteSource removes every chunk of a source
func (r *GormKnowledgeRepository) DeleteSource(ctx context.Context, tenantID uuid.UUID, kind assistant.SourceKind, sourceID uuid.UUID) error {
	return deleteSource(r.db.WithContext(ctx), tenantID, kind, sourceID)
}

func deleteSource(db *gorm.DB, tenantID uuid.UUID, kind assistant.SourceKind, sourceID uuid.UUID) error {
	return db.Where("tenant_id = ? AND source_kind = ? AND source_id = ?", tenantID, kind, sourceID).
		Delete(&models.KnowledgeChunkModel{}).Error
}
