// Package messaging covers internal office messages and outgoing client e-mail.
package messaging

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
)

// Channel tells how a message reaches its recipient.
type Channel string

const (
	ChannelInternal Channel = "internal"
	ChannelEmail    Channel = "email"
)

// Limits on message content.
const (
	MaxSubjectLength = 250
	MaxBodyLength    = 20000
)

// Message is a single message in a thread.
type Message struct {
	shared.TenantAggregateRoot
	ThreadID           string
	ParentID           *uuid.UUID
	DossierID          *uuid.UUID
	SenderID           uuid.UUID
	RecipientID        *uuid.UUID
	RecipientEmail     string
	Subject            string
	Body               string
	Channel            Channel
	ReadAt             *time.Time
	SentAt             time.Time
	SenderDeletedAt    *time.Time
	RecipientDeletedAt *time.Time
}

// NewInternalMessage creates a message between two users of the same office.
func NewInternalMessage(tenantID, senderID, recipientID uuid.UUID, threadID, subject, body string) (*Message, error) {
	if recipientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECIPIENT", "A recipient is required")
	}
	if recipientID == senderID {
		return nil, shared.NewDomainError("INVALID_RECIPIENT", "Cannot send a message to yourself")
	}
	m, err := newMessage(tenantID, senderID, threadID, subject, body)
	if err != nil {
		return nil, err
	}
	m.RecipientID = &recipientID
	m.Channel = ChannelInternal
	return m, nil
}

// NewEmailMessage creates a message delivered to an external address.
func NewEmailMessage(tenantID, senderID uuid.UUID, email, threadID, subject, body string) (*Message, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !identity.ValidEmail(email) {
		return nil, shared.NewDomainError("INVALID_RECIPIENT", "Invalid recipient e-mail")
	}
	m, err := newMessage(tenantID, senderID, threadID, subject, body)
	if err != nil {
		return nil, err
	}
	m.RecipientEmail = email
	m.Channel = ChannelEmail
	return m, nil
}

func newMessage(tenantID, senderID uuid.UUID, threadID, subject, body string) (*Message, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject cannot be empty")
	}
	if len(subject) > MaxSubjectLength {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject is too long")
	}
	if strings.TrimSpace(body) == "" {
		return nil, shared.NewDomainError("INVALID_BODY", "Message body cannot be empty")
	}
	if len(body) > MaxBodyLength {
		return nil, shared.NewDomainError("INVALID_BODY", "Message body is too long")
	}
	if threadID == "" {
		return nil, shared.NewDomainError("INVALID_THREAD", "Thread id is required")
	}
	return &Message{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, senderID),
		ThreadID:            threadID,
		SenderID:            senderID,
		Subject:             subject,
		Body:                body,
		SentAt:              time.Now(),
	}, nil
}

// ReplySubject prefixes a subject with "Re: " once.
func ReplySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// IsRead reports whether the recipient opened the message.
func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

// IsRecipient reports whether userID received the message.
func (m *Message) IsRecipient(userID uuid.UUID) bool {
	return m.RecipientID != nil && *m.RecipientID == userID
}

// IsParticipant reports whether userID sent or received the message.
func (m *Message) IsParticipant(userID uuid.UUID) bool {
	return m.SenderID == userID || m.IsRecipient(userID)
}

// VisibleTo reports whether userID can still see the message.
func (m *Message) VisibleTo(userID uuid.UUID) bool {
	if m.SenderID == userID && m.SenderDeletedAt == nil {
		return true
	}
	return m.IsRecipient(userID) && m.RecipientDeletedAt == nil
}

// MarkRead records the first time the recipient opened the message.
func (m *Message) MarkRead(userID uuid.UUID, at time.Time) bool {
	if !m.IsRecipient(userID) || m.ReadAt != nil {
		return false
	}
	m.ReadAt = &at
	m.IncrementVersion()
	return true
}

// HideFor removes the message from userID's mailbox.
func (m *Message) HideFor(userID uuid.UUID, at time.Time) error {
	if !m.IsParticipant(userID) {
		return shared.ErrNotFound
	}
	if m.SenderID == userID {
		m.SenderDeletedAt = &at
	}
	if m.IsRecipient(userID) {
		m.RecipientDeletedAt = &at
	}
	m.IncrementVersion()
	return nil
}
