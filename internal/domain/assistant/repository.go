package assistant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
)

// SessionRepository persists chat sessions and their messages.
type SessionRepository interface {
	Create(ctx context.Context, s *ChatSession) error
	Update(ctx context.Context, s *ChatSession) error
	// FindByID loads the session; withMessages also loads its messages in order.
	FindByID(ctx context.Context, tenantID, id uuid.UUID, withMessages bool) (*ChatSession, error)
	FindByUser(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]*ChatSession, int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// RecordExchange saves the session's title and usage totals and appends
	// msgs in one transaction.
	RecordExchange(ctx context.Context, s *ChatSession, msgs ...ChatMessage) error
	// Usage sums tokens and cost per user for messages created in [from, to).
	Usage(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]UsageRow, error)
}

// KnowledgeRepository persists knowledge chunks.
type KnowledgeRepository interface {
	// ReplaceSource deletes all chunks of a source and stores the new ones.
	ReplaceSource(ctx context.Context, tenantID uuid.UUID, kind SourceKind, sourceID uuid.UUID, chunks []*KnowledgeChunk) error
	// Candidates returns chunks that are office-wide or belong to dossierID.
	Candidates(ctx context.Context, tenantID uuid.UUID, dossierID *uuid.UUID, limit int) ([]*KnowledgeChunk, error)
	DeleteSource(ctx context.Context, tenantID uuid.UUID, kind SourceKind, sourceID uuid.UUID) error
}
