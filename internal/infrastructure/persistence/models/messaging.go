package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/messaging"
)

// MessageModel is the persistence model for a message. Per-side deletion is
// kept in its own columns; the row-level DeletedAt is unused by the mailbox.
type MessageModel struct {
	TenantAggregateModel
	ThreadID           string            `gorm:"type:varchar(26);not null;index"`
	ParentID           *uuid.UUID        `gorm:"type:uuid"`
	DossierID          *uuid.UUID        `gorm:"type:uuid;index"`
	SenderID           uuid.UUID         `gorm:"type:uuid;not null;index"`
	RecipientID        *uuid.UUID        `gorm:"type:uuid;index"`
	RecipientEmail     string            `gorm:"type:varchar(200)"`
	Subject            string            `gorm:"type:varchar(250);not null"`
	Body               string            `gorm:"type:text;not null"`
	Channel            messaging.Channel `gorm:"type:varchar(20);not null"`
	ReadAt             *time.Time
	SentAt             time.Time `gorm:"not null;index"`
	SenderDeletedAt    *time.Time
	RecipientDeletedAt *time.Time
}

// TableName returns the table name for GORM
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts to a domain Message.
func (m *MessageModel) ToDomain() *messaging.Message {
	return &messaging.Message{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		ThreadID:            m.ThreadID,
		ParentID:            m.ParentID,
		DossierID:           m.DossierID,
		SenderID:            m.SenderID,
		RecipientID:         m.RecipientID,
		RecipientEmail:      m.RecipientEmail,
		Subject:             m.Subject,
		Body:                m.Body,
		Channel:             m.Channel,
		ReadAt:              m.ReadAt,
		SentAt:              m.SentAt,
		SenderDeletedAt:     m.SenderDeletedAt,
		RecipientDeletedAt:  m.RecipientDeletedAt,
	}
}

// MessageModelFromDomain creates a persistence model from a domain Message.
func MessageModelFromDomain(msg *messaging.Message) *MessageModel {
	m := &MessageModel{
		ThreadID:           msg.ThreadID,
		ParentID:           msg.ParentID,
		DossierID:          msg.DossierID,
		SenderID:           msg.SenderID,
		RecipientID:        msg.RecipientID,
		RecipientEmail:     msg.RecipientEmail,
		Subject:            msg.Subject,
		Body:               msg.Body,
		Channel:            msg.Channel,
		ReadAt:             msg.ReadAt,
		SentAt:             msg.SentAt,
		SenderDeletedAt:    msg.SenderDeletedAt,
		RecipientDeletedAt: msg.RecipientDeletedAt,
	}
	m.FromDomainTenantAggregateRoot(msg.TenantAggregateRoot)
	return m
}
