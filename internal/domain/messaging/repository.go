package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
)

// Mailbox selects which side of the conversation to list.
type Mailbox string

const (
	MailboxInbox Mailbox = "inbox"
	MailboxSent  Mailbox = "sent"
)

// Filter narrows mailbox listings.
type Filter struct {
	shared.Filter
	Mailbox    Mailbox
	UnreadOnly bool
	DossierID  *uuid.UUID
}

// Repository persists messages.
type Repository interface {
	Create(ctx context.Context, m *Message) error
	Update(ctx context.Context, m *Message) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Message, error)
	FindMailbox(ctx context.Context, tenantID, userID uuid.UUID, filter Filter) ([]*Message, int64, error)
	FindThread(ctx context.Context, tenantID uuid.UUID, threadID string) ([]*Message, error)
	CountUnread(ctx context.Context, tenantID, userID uuid.UUID) (int64, error)
}
